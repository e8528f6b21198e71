package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/muhammadolammi/jobmatchclient/internal/api"
	"github.com/muhammadolammi/jobmatchclient/internal/cache"
	"github.com/muhammadolammi/jobmatchclient/internal/models"
	"github.com/muhammadolammi/jobmatchclient/internal/preview"
	"github.com/muhammadolammi/jobmatchclient/internal/resume"
	"github.com/muhammadolammi/jobmatchclient/internal/upload"
)

type command struct {
	usage string
	run   func(c *ClientConfig, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login":        {"login -email <email> -password <password>", (*ClientConfig).cmdLogin},
		"register":     {"register -role job_seeker|employer -email <email> -password <password> [role fields]", (*ClientConfig).cmdRegister},
		"logout":       {"logout", (*ClientConfig).cmdLogout},
		"me":           {"me", (*ClientConfig).cmdMe},
		"sessions":     {"sessions [-offline]", (*ClientConfig).cmdSessions},
		"session":      {"session <session-id>", (*ClientConfig).cmdSession},
		"create":       {"create -name <name> -title <job title> -description <text>|-description-file <path>", (*ClientConfig).cmdCreate},
		"upload":       {"upload [-watch] <session-id> <file>...", (*ClientConfig).cmdUpload},
		"analyze":      {"analyze <session-id>", (*ClientConfig).cmdAnalyze},
		"results":      {"results [-offline] <session-id>", (*ClientConfig).cmdResults},
		"watch":        {"watch <session-id>", (*ClientConfig).cmdWatch},
		"plans":        {"plans", (*ClientConfig).cmdPlans},
		"subscribe":    {"subscribe <plan-code>", (*ClientConfig).cmdSubscribe},
		"subscription": {"subscription", (*ClientConfig).cmdSubscription},
		"plan-create":  {"plan-create -name <name> -amount <n> -currency NGN -daily-limit <n>", (*ClientConfig).cmdPlanCreate},
		"plan-page":    {"plan-page -plan <plan-id> -page <url>", (*ClientConfig).cmdPlanPage},
		"preview":      {"preview -title <job title> -description <text> [-object <key>] [<file>...]", (*ClientConfig).cmdPreview},
	}
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: jobmatch <command> [flags]")
	fmt.Fprintln(w)
	for _, name := range names {
		fmt.Fprintf(w, "  jobmatch %s\n", commands[name].usage)
	}
}

func (c *ClientConfig) run(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		usage(c.Out)
		return fmt.Errorf("unknown command %q", name)
	}
	err := cmd.run(c, ctx, args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: jobmatch %s\n", commands[name].usage)
		fs.PrintDefaults()
	}
	return fs
}

func sessionArg(fs *flag.FlagSet) (uuid.UUID, error) {
	if fs.NArg() < 1 {
		return uuid.Nil, models.NewValidationError("Session id is required", map[string]string{"session": "required"})
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return uuid.Nil, models.NewValidationError("Invalid session id", map[string]string{"session": fs.Arg(0)})
	}
	return id, nil
}

func (c *ClientConfig) cmdLogin(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("JOBMATCH_PASSWORD"), "account password (or JOBMATCH_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.API.Login(ctx, *email, *password); err != nil {
		return err
	}
	user, err := c.API.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "✅ Signed in as %s\n", displayName(user))
	return nil
}

func (c *ClientConfig) cmdRegister(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	var req models.RegisterRequest
	role := fs.String("role", string(models.RoleJobSeeker), "job_seeker or employer")
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Password, "password", os.Getenv("JOBMATCH_PASSWORD"), "account password (or JOBMATCH_PASSWORD)")
	fs.StringVar(&req.FirstName, "first-name", "", "job seeker first name")
	fs.StringVar(&req.LastName, "last-name", "", "job seeker last name")
	fs.StringVar(&req.CompanyName, "company-name", "", "employer company name")
	fs.StringVar(&req.CompanyWebsite, "company-website", "", "employer website")
	fs.IntVar(&req.CompanySize, "company-size", 0, "employer head count")
	fs.StringVar(&req.CompanyIndustry, "company-industry", "", "employer industry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req.Role = models.Role(*role)
	if err := c.API.Register(ctx, req); err != nil {
		return err
	}
	fmt.Fprintln(c.Out, "✅ Account created. Run `jobmatch login` to sign in.")
	return nil
}

func (c *ClientConfig) cmdLogout(ctx context.Context, _ []string) error {
	if err := c.API.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.Out, "👋 Signed out.")
	return nil
}

func (c *ClientConfig) cmdMe(ctx context.Context, _ []string) error {
	user, err := c.requireUser(ctx)
	if err != nil {
		return err
	}
	renderUser(c.Out, user)
	return nil
}

func (c *ClientConfig) cmdSessions(ctx context.Context, args []string) error {
	fs := newFlagSet("sessions")
	offline := fs.Bool("offline", false, "list the locally cached sessions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *offline {
		if c.Cache == nil {
			return errors.New("offline mode needs DB_URL")
		}
		sessions, err := c.Cache.Sessions(ctx)
		if err != nil {
			return err
		}
		renderSessions(c.Out, sessions)
		return nil
	}

	if _, err := c.requireUser(ctx); err != nil {
		return err
	}
	sessions, err := c.API.ListSessions(ctx)
	if err != nil {
		return err
	}
	c.cacheSessions(ctx, sessions...)
	renderSessions(c.Out, sessions)
	return nil
}

func (c *ClientConfig) cmdSession(ctx context.Context, args []string) error {
	fs := newFlagSet("session")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := sessionArg(fs)
	if err != nil {
		return err
	}
	session, err := c.API.GetSession(ctx, id)
	if err != nil {
		return err
	}
	c.cacheSessions(ctx, *session)
	renderSession(c.Out, session)
	return nil
}

func (c *ClientConfig) cmdCreate(ctx context.Context, args []string) error {
	fs := newFlagSet("create")
	var params api.CreateSessionParams
	fs.StringVar(&params.Name, "name", "", "session title")
	fs.StringVar(&params.JobTitle, "title", "", "job title")
	fs.StringVar(&params.JobDescription, "description", "", "job description")
	descFile := fs.String("description-file", "", "read the job description from a file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *descFile != "" {
		data, err := os.ReadFile(*descFile)
		if err != nil {
			return fmt.Errorf("failed to read job description: %w", err)
		}
		params.JobDescription = string(data)
	}
	if _, err := c.requireUser(ctx); err != nil {
		return err
	}
	session, err := c.API.CreateSession(ctx, params)
	if err != nil {
		return err
	}
	c.cacheSessions(ctx, *session)
	fmt.Fprintf(c.Out, "✅ Session created: %s\n", session.ID)
	return nil
}

func (c *ClientConfig) cmdUpload(ctx context.Context, args []string) error {
	fs := newFlagSet("upload")
	watch := fs.Bool("watch", false, "wait for the analysis to finish before showing results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := sessionArg(fs)
	if err != nil {
		return err
	}

	files := make([]*resume.File, 0, fs.NArg()-1)
	for _, path := range fs.Args()[1:] {
		f, err := resume.Load(path, c.maxFileSize())
		if err != nil {
			return models.NewValidationError("Some files cannot be uploaded.", map[string]string{path: err.Error()})
		}
		files = append(files, f)
	}

	user, err := c.requireUser(ctx)
	if err != nil {
		return err
	}
	session, err := c.API.GetSession(ctx, id)
	if err != nil {
		return err
	}
	uploader, err := c.newUploader(ctx)
	if err != nil {
		return err
	}
	results, err := uploader.Run(ctx, upload.Job{Session: session, User: user, Files: files})
	if err != nil {
		return err
	}

	if *watch {
		status, err := c.watch(ctx, session.ID, models.StatusPending)
		if err != nil {
			return err
		}
		if status != models.StatusCompleted {
			return nil
		}
		if results, err = c.API.Results(ctx, session.ID); err != nil {
			return err
		}
	}
	c.cacheResults(ctx, session.ID, results)
	renderResults(c.Out, user, results)
	return nil
}

func (c *ClientConfig) cmdAnalyze(ctx context.Context, args []string) error {
	fs := newFlagSet("analyze")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := sessionArg(fs)
	if err != nil {
		return err
	}
	if _, err := c.requireUser(ctx); err != nil {
		return err
	}
	session, err := c.API.GetSession(ctx, id)
	if err != nil {
		return err
	}
	err = c.API.Analyze(ctx, api.AnalyzeRequest{
		SessionID:      session.ID,
		JobTitle:       session.JobTitle,
		JobDescription: session.JobDescription,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "⏳ Analysis queued. Run `jobmatch watch %s` to follow it.\n", session.ID)
	return nil
}

func (c *ClientConfig) cmdResults(ctx context.Context, args []string) error {
	fs := newFlagSet("results")
	offline := fs.Bool("offline", false, "show the locally cached results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := sessionArg(fs)
	if err != nil {
		return err
	}

	if *offline {
		if c.Cache == nil {
			return errors.New("offline mode needs DB_URL")
		}
		results, err := c.Cache.Results(ctx, id)
		if errors.Is(err, cache.ErrNotCached) {
			results, err = nil, nil
		}
		if err != nil {
			return err
		}
		renderResults(c.Out, c.Session.User(), results)
		return nil
	}

	user, err := c.requireUser(ctx)
	if err != nil {
		return err
	}
	results, err := c.API.Results(ctx, id)
	if err != nil {
		return err
	}
	c.cacheResults(ctx, id, results)
	renderResults(c.Out, user, results)
	return nil
}

func (c *ClientConfig) cmdWatch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := sessionArg(fs)
	if err != nil {
		return err
	}
	user, err := c.requireUser(ctx)
	if err != nil {
		return err
	}
	session, err := c.API.GetSession(ctx, id)
	if err != nil {
		return err
	}
	status, err := c.watch(ctx, session.ID, session.Status)
	if err != nil {
		return err
	}
	if status != models.StatusCompleted {
		return nil
	}
	results, err := c.API.Results(ctx, session.ID)
	if err != nil {
		return err
	}
	c.cacheResults(ctx, session.ID, results)
	renderResults(c.Out, user, results)
	return nil
}

// watch prints every status until the session finishes or the feed drops,
// and returns the last status seen.
func (c *ClientConfig) watch(ctx context.Context, id uuid.UUID, last models.SessionStatus) (models.SessionStatus, error) {
	sub, err := c.newSubscriber(ctx)
	if err != nil {
		return last, err
	}
	defer sub.Close()

	if err := sub.Subscribe(ctx, id, last); err != nil {
		return last, err
	}
	status := sub.Status()
	for s := range sub.Statuses(ctx) {
		status = s
		fmt.Fprintln(c.Out, statusLine(s))
	}
	if err := ctx.Err(); err != nil {
		return status, err
	}
	if !status.Terminal() {
		fmt.Fprintln(c.Out, "⚠️ Lost connection to live updates. Run `jobmatch watch` again to resume.")
	}
	return status, nil
}

func (c *ClientConfig) cmdPlans(ctx context.Context, _ []string) error {
	plans, err := c.API.Plans(ctx)
	if err != nil {
		return err
	}
	var sub *models.UserSubscription
	if c.Session.Authenticated(ctx) {
		s := c.API.MySubscription(ctx)
		sub = &s
	}
	renderPlans(c.Out, plans, sub)
	return nil
}

func (c *ClientConfig) cmdSubscribe(ctx context.Context, args []string) error {
	fs := newFlagSet("subscribe")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := c.requireUser(ctx); err != nil {
		return err
	}
	page, err := c.API.Subscribe(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "💳 Complete your subscription at:\n%s\n", page)
	return nil
}

func (c *ClientConfig) cmdSubscription(ctx context.Context, _ []string) error {
	if _, err := c.requireUser(ctx); err != nil {
		return err
	}
	sub := c.API.MySubscription(ctx)
	plans, err := c.API.Plans(ctx)
	if err != nil {
		return err
	}
	renderSubscription(c.Out, sub, plans)
	return nil
}

func (c *ClientConfig) cmdPlanCreate(ctx context.Context, args []string) error {
	fs := newFlagSet("plan-create")
	var req models.CreatePlanRequest
	fs.StringVar(&req.Name, "name", "", "plan name")
	fs.Float64Var(&req.Amount, "amount", 0, "price per period")
	fs.StringVar(&req.Currency, "currency", "NGN", "ISO currency code")
	fs.IntVar(&req.DailyLimit, "daily-limit", 0, "AI scans per day")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := c.requireUser(ctx, models.RoleAdmin); err != nil {
		return err
	}
	if err := c.API.CreatePlan(ctx, req); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "✅ Plan %s created.\n", req.Name)
	return nil
}

func (c *ClientConfig) cmdPlanPage(ctx context.Context, args []string) error {
	fs := newFlagSet("plan-page")
	planID := fs.String("plan", "", "plan id")
	page := fs.String("page", "", "subscription page URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := c.requireUser(ctx, models.RoleAdmin); err != nil {
		return err
	}
	if err := c.API.UpdatePlanPage(ctx, *planID, *page); err != nil {
		return err
	}
	fmt.Fprintln(c.Out, "✅ Subscription page updated.")
	return nil
}

func (c *ClientConfig) cmdPreview(ctx context.Context, args []string) error {
	fs := newFlagSet("preview")
	title := fs.String("title", "", "job title")
	description := fs.String("description", "", "job description")
	object := fs.String("object", "", "analyze a resume already in the R2 bucket")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var files []*resume.File
	for _, path := range fs.Args() {
		f, err := resume.Load(path, c.maxFileSize())
		if err != nil {
			return err
		}
		files = append(files, f)
	}
	if *object != "" {
		store, err := upload.NewR2Store(ctx, c.Cfg.R2)
		if err != nil {
			return err
		}
		data, err := store.Get(ctx, *object)
		if err != nil {
			return err
		}
		f, err := resume.FromBytes(*object, data)
		if err != nil {
			return err
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return models.NewValidationError("Please select at least one file.", nil)
	}

	analyzer, err := preview.New(ctx, c.Cfg.Preview.GoogleAPIKey, c.Cfg.Preview.Model, c.Logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Out, "🤖 Running local preview...")
	results, err := analyzer.Analyze(ctx, *title, *description, files)
	if err != nil {
		return err
	}
	renderResults(c.Out, c.Session.User(), results)
	return nil
}

func (c *ClientConfig) cacheSessions(ctx context.Context, sessions ...models.Session) {
	if c.Cache == nil {
		return
	}
	if err := c.Cache.SaveSessions(ctx, sessions); err != nil {
		c.Logger.Printf("⚠️ %v", err)
	}
}

func (c *ClientConfig) cacheResults(ctx context.Context, id uuid.UUID, results []models.AnalysesResult) {
	if c.Cache == nil || len(results) == 0 {
		return
	}
	if err := c.Cache.SaveResults(ctx, id, results); err != nil {
		c.Logger.Printf("⚠️ %v", err)
	}
}

func displayName(u *models.User) string {
	name := strings.TrimSpace(u.DisplayName)
	if name == "" {
		name = u.Email
	}
	return fmt.Sprintf("%s (%s)", name, roleLabel(u.Role))
}
