package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/verdantmetrics/lai-forecast-poc/internal/properties"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

const (
	colorRed    = 16711680
	colorGreen  = 65280
	colorYellow = 16776960
)

func sendDiscordNotification(url, title, description string, color int) error {
	if url == "" {
		return nil
	}

	message := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title:       title,
				Description: description,
				Color:       color,
			},
		},
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}

	return nil
}

func SendDiscordErrorNotification(errorMessage string) error {
	return sendDiscordNotification(
		properties.DiscordErrorNotificationUrl(),
		"🚨 LAI run failed",
		fmt.Sprintf("An error occurred: %s", errorMessage),
		colorRed,
	)
}

func SendDiscordWarnNotification(warnMessage string) error {
	return sendDiscordNotification(
		properties.DiscordErrorNotificationUrl(),
		"⚠️ LAI run completed with problems",
		warnMessage,
		colorYellow,
	)
}

func SendDiscordSuccessNotification(successMessage string) error {
	return sendDiscordNotification(
		properties.DiscordSuccessNotificationUrl(),
		"✅ LAI run completed",
		successMessage,
		colorGreen,
	)
}
