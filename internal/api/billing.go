package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/muhammadolammi/jobmatchclient/internal/models"
)

type envelope[T any] struct {
	Message string `json:"Message"`
	Data    T      `json:"Data"`
}

type SubscribeResponse struct {
	SubscribePage string `json:"subscribe_page"`
}

func (c *Client) Plans(ctx context.Context) ([]models.Plan, error) {
	var out envelope[[]models.Plan]
	if _, err := c.gw.Do(ctx, requestJSON(http.MethodGet, "/plans", nil, &out)); err != nil {
		return nil, fmt.Errorf("failed to get plans: %w", err)
	}
	if out.Data == nil {
		return []models.Plan{}, nil
	}
	return out.Data, nil
}

// Subscribe starts checkout and returns the payment page to open.
func (c *Client) Subscribe(ctx context.Context, planCode string) (string, error) {
	if planCode == "" {
		return "", models.NewValidationError("Plan code is required", map[string]string{"plan_code": "required"})
	}
	var out envelope[SubscribeResponse]
	body := map[string]string{"plan_code": planCode}
	if _, err := c.gw.Do(ctx, requestJSON(http.MethodPost, "/subscribe", body, &out)); err != nil {
		return "", fmt.Errorf("failed to initiate subscription: %w", err)
	}
	return out.Data.SubscribePage, nil
}

// MySubscription falls back to the free tier when the lookup fails.
func (c *Client) MySubscription(ctx context.Context) models.UserSubscription {
	var sub models.UserSubscription
	if _, err := c.gw.Do(ctx, requestJSON(http.MethodGet, "/subscription/me", nil, &sub)); err != nil {
		c.logger.Printf("⚠️ Failed to fetch subscription: %v", err)
		return models.FreeSubscription()
	}
	return sub
}

func (c *Client) CreatePlan(ctx context.Context, req models.CreatePlanRequest) error {
	if err := models.Required("Plan name and currency are required", map[string]string{
		"name":     req.Name,
		"currency": req.Currency,
	}); err != nil {
		return err
	}
	if _, err := c.gw.Do(ctx, requestJSON(http.MethodPost, "/plans", req, nil)); err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

func (c *Client) UpdatePlanPage(ctx context.Context, planID, pageURL string) error {
	if err := models.Required("Plan and page are required", map[string]string{
		"plan_id":           planID,
		"subscription_page": pageURL,
	}); err != nil {
		return err
	}
	body := models.PlanPageRequest{PlanID: planID, SubscriptionPage: pageURL}
	if _, err := c.gw.Do(ctx, requestJSON(http.MethodPost, "/plans/subpage", body, nil)); err != nil {
		return fmt.Errorf("failed to update subscription page: %w", err)
	}
	return nil
}
