package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/muhammadolammi/jobmatchclient/internal/models"
)

func roleLabel(r models.Role) string {
	switch r {
	case models.RoleEmployer:
		return "Employer"
	case models.RoleJobSeeker:
		return "Job Seeker"
	case models.RoleAdmin:
		return "Admin"
	default:
		return "No role"
	}
}

func renderUser(w io.Writer, u *models.User) {
	fmt.Fprintf(w, "%s\n", displayName(u))
	fmt.Fprintf(w, "Email: %s\n", u.Email)
	fmt.Fprintf(w, "ID:    %s\n", u.ID)
}

func statusLine(s models.SessionStatus) string {
	switch s {
	case models.StatusIdle:
		return "💤 Waiting for uploads"
	case models.StatusPending:
		return "⏳ Queued for analysis"
	case models.StatusProcessing:
		return "⚙️ Analyzing resumes..."
	case models.StatusCompleted:
		return "✅ Analysis complete."
	case models.StatusFailed:
		return "❌ Analysis failed. You can retry the analysis or re-upload resumes."
	default:
		return fmt.Sprintf("❔ Status: %s", s)
	}
}

func renderSessions(w io.Writer, sessions []models.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions yet. Create one with `jobmatch create`.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCREATED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Status, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func renderSession(w io.Writer, s *models.Session) {
	fmt.Fprintf(w, "%s\n", s.Name)
	fmt.Fprintf(w, "ID:      %s\n", s.ID)
	fmt.Fprintf(w, "Status:  %s\n", s.Status)
	fmt.Fprintf(w, "Created: %s\n", s.CreatedAt.Format("2006-01-02 15:04"))
	if s.JobTitle != "" {
		fmt.Fprintf(w, "Job:     %s\n", s.JobTitle)
	}
	if s.JobDescription != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(s.JobDescription))
	}
}

// renderResults follows the result view: error results first, then the
// score, summary, skills, experience and recommendation of each candidate.
func renderResults(w io.Writer, user *models.User, results []models.AnalysesResult) {
	if user.IsEmployer() {
		fmt.Fprintln(w, "Candidate Resume Analysis")
	} else {
		fmt.Fprintln(w, "Resume Fit Analysis")
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "No analysis results yet. Upload or rerun analysis to begin.")
		return
	}

	ordered := make([]models.AnalysesResult, 0, len(results))
	for _, r := range results {
		if r.IsErrorResult {
			ordered = append(ordered, r)
		}
	}
	for _, r := range results {
		if !r.IsErrorResult {
			ordered = append(ordered, r)
		}
	}

	for _, r := range ordered {
		fmt.Fprintln(w, strings.Repeat("─", 48))
		if r.IsErrorResult {
			msg := r.Error
			if msg == "" {
				msg = "Unknown error occurred."
			}
			fmt.Fprintf(w, "Analysis Error\n%s\n", msg)
			continue
		}
		renderResult(w, r)
	}
}

func renderResult(w io.Writer, r models.AnalysesResult) {
	if r.CandidateEmail != "" {
		fmt.Fprintf(w, "👤 %s\n", r.CandidateEmail)
	}
	fmt.Fprintf(w, "Match Score: %d%%\n\n", r.MatchScore)

	fmt.Fprintf(w, "AI Summary\n%s\n\n", r.Summary)

	fmt.Fprintln(w, "Relevant Skills")
	writeList(w, "⭐", r.RelevantSkills, "No relevant skills found.")
	fmt.Fprintln(w, "Missing Skills")
	writeList(w, "✗", r.MissingSkills, "No missing skills found.")
	fmt.Fprintln(w, "Relevant Experience")
	writeList(w, "•", r.RelevantExperiences, "No specific experience snippets found.")

	icon := "👍"
	if r.Band() == "weak" {
		icon = "👎"
	}
	fmt.Fprintf(w, "Recommendation (%s)\n%s %s\n", r.Band(), icon, r.Recommendation)
}

func writeList(w io.Writer, bullet string, items []string, empty string) {
	if len(items) == 0 {
		fmt.Fprintf(w, "  %s\n\n", empty)
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "  %s %s\n", bullet, item)
	}
	fmt.Fprintln(w)
}

func renderPlans(w io.Writer, plans []models.Plan, sub *models.UserSubscription) {
	if len(plans) == 0 {
		fmt.Fprintln(w, "No plans available.")
		return
	}
	for _, p := range models.SortPlans(plans) {
		var tags []string
		if p.IsPopular() {
			tags = append(tags, "Most Popular")
		}
		if models.IsCurrentPlan(sub, p) {
			tags = append(tags, "Current Plan")
		}
		header := fmt.Sprintf("%s  %s", p.Name, p.DisplayPrice())
		if len(tags) > 0 {
			header += "  [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Fprintln(w, header)
		if p.PlanCode != "" {
			fmt.Fprintf(w, "  code: %s\n", p.PlanCode)
		}
		for _, f := range p.Features() {
			fmt.Fprintf(w, "  ✓ %s\n", f)
		}
		fmt.Fprintln(w)
	}
}

func renderSubscription(w io.Writer, sub models.UserSubscription, plans []models.Plan) {
	for _, p := range models.SortPlans(plans) {
		if models.IsCurrentPlan(&sub, p) {
			fmt.Fprintf(w, "Plan:   %s (%s)\n", p.Name, p.DisplayPrice())
			fmt.Fprintf(w, "Status: %s\n", sub.Status)
			return
		}
	}
	fmt.Fprintln(w, "Plan:   Free")
	fmt.Fprintf(w, "Status: %s\n", sub.Status)
}
