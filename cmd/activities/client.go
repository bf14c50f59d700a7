package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	fastshot "github.com/opus-domini/fast-shot"

	"github.com/mergington/activities/internal/registry"
)

const clientTimeout = 10 * time.Second

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string {
	detail := strings.TrimSpace(e.Detail)
	if detail == "" {
		detail = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d)", detail, e.Status)
}

type apiResult struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func fetchActivities(ctx context.Context, server string) (registry.Catalog, error) {
	client := fastshot.NewClient(strings.TrimRight(server, "/")).
		Config().SetTimeout(clientTimeout).
		Build()

	resp, err := client.GET("/activities").
		Context().Set(ctx).
		Send()
	if err != nil {
		return nil, fmt.Errorf("request activities: %w", err)
	}
	defer resp.Body().Close()

	if code := resp.Status().Code(); code != http.StatusOK {
		var result apiResult
		_ = resp.Body().AsJSON(&result)
		return nil, &apiError{Status: code, Detail: result.Detail}
	}
	var catalog registry.Catalog
	if err := resp.Body().AsJSON(&catalog); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	return catalog, nil
}

func signupStudent(ctx context.Context, server, activity, email string) (string, error) {
	return changeMembership(ctx, server, http.MethodPost, activity, email)
}

func unregisterStudent(ctx context.Context, server, activity, email string) (string, error) {
	return changeMembership(ctx, server, http.MethodDelete, activity, email)
}

func changeMembership(ctx context.Context, server, method, activity, email string) (string, error) {
	client := fastshot.NewClient(strings.TrimRight(server, "/")).
		Config().SetTimeout(clientTimeout).
		Build()

	send := client.POST
	if method == http.MethodDelete {
		send = client.DELETE
	}
	resp, err := send(signupPath(activity)).
		Context().Set(ctx).
		Query().AddParam("email", email).
		Send()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", method, activity, err)
	}
	defer resp.Body().Close()

	var result apiResult
	decodeErr := resp.Body().AsJSON(&result)
	if code := resp.Status().Code(); code != http.StatusOK {
		return "", &apiError{Status: code, Detail: result.Detail}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}
	return result.Message, nil
}

func signupPath(activity string) string {
	return "/activities/" + url.PathEscape(activity) + "/signup"
}
