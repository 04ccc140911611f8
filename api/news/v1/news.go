package v1

import (
	"github.com/ArturAbdullinITIS/newsd/api"
)

type CreateSubscriptionRequest struct {
	Topic string `json:"topic"`
}

// Validate checks that the body (minus logic checks) is valid.
//
// Returns an api.Error if the request is invalid.
func (r CreateSubscriptionRequest) Validate() error {
	errs := []api.ErrorDetail{}
	if r.Topic == "" {
		errs = append(errs, api.ErrorDetail{
			Field: "topic",
			Error: "topic is required",
		})
	}
	if len(errs) > 0 {
		return api.Error{
			Reason:  "invalid_request",
			Message: "request was invalid",
			Details: errs,
		}
	}

	return nil
}

type SubscriptionsResponse struct {
	Topics []string `json:"topics"`
}

type Article struct {
	URL         string  `json:"url"`
	Topic       string  `json:"topic"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	SourceName  string  `json:"sourceName"`
	PublishedAt int64   `json:"publishedAt"`
	ImageURL    *string `json:"imageUrl,omitempty"`
}

type ArticlesResponse struct {
	Articles []Article `json:"articles"`
}

type Settings struct {
	Language             string `json:"language"`
	IntervalMinutes      int    `json:"intervalMinutes"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	WifiOnly             bool   `json:"wifiOnly"`
}

// UpdateSettingsRequest carries the fields to change; absent fields are left
// alone.
type UpdateSettingsRequest struct {
	Language             *string `json:"language"`
	IntervalMinutes      *int    `json:"intervalMinutes"`
	NotificationsEnabled *bool   `json:"notificationsEnabled"`
	WifiOnly             *bool   `json:"wifiOnly"`
}

func (r UpdateSettingsRequest) Validate() error {
	if r.Language == nil && r.IntervalMinutes == nil && r.NotificationsEnabled == nil && r.WifiOnly == nil {
		return api.Error{
			Reason:  "invalid_request",
			Message: "no settings fields given",
		}
	}

	return nil
}

type RefreshResponse struct {
	UpdatedTopics []string `json:"updatedTopics"`
}
