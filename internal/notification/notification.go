/*
Copyright 2025 Tradepost Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package notification reports system errors to operators (Slack) and
// forwards domain events to the registered webhook sender.
package notification

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tradepost-hq/tradepost/config"
	"github.com/tradepost-hq/tradepost/internal/request"
)

// WebhookSender delivers a system event to the configured webhook endpoint.
// The root package registers its queue-backed implementation at startup;
// keeping the dependency inverted avoids an import cycle.
type WebhookSender func(event string, payload interface{}) error

var webhookSender WebhookSender

// RegisterWebhookSender wires the webhook delivery implementation used by
// NotifySystemEvent. Registering a new sender replaces the previous one.
func RegisterWebhookSender(sender WebhookSender) {
	webhookSender = sender
}

// NotifySystemEvent forwards an event through the registered webhook sender,
// if any. Events are dropped silently when no sender is registered.
func NotifySystemEvent(event string, payload interface{}) error {
	if webhookSender == nil {
		return nil
	}
	return webhookSender(event, payload)
}

// SlackNotification posts the error to the configured Slack webhook. Failures
// are logged and swallowed; error reporting never takes down the operation
// that produced the error.
func SlackNotification(err error) {
	data := json.RawMessage(fmt.Sprintf(`{
		"blocks": [
			{
				"type": "header",
				"text": {
					"type": "plain_text",
					"text": "Error From Tradepost 🐞",
					"emoji": true
				}
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "*Error:*\n%v"
					}
				]
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "*Time:*\n%v"
					}
				]
			}
		]
	}`, err.Error(), time.Now().Format(time.RFC822)))

	conf, err := config.Fetch()
	if err != nil {
		log.Println(err)
		return
	}

	payload, err := request.ToJsonReq(&data)
	if err != nil {
		log.Println(err)
		return
	}

	req, err := http.NewRequest("POST", conf.Notification.Slack.WebhookUrl, payload)
	if err != nil {
		log.Println(err)
		return
	}

	var response map[string]interface{}
	_, err = request.Call(req, &response)
	if err != nil {
		log.Println(err)
	}
}

// NotifyError logs the error and, when Slack is configured, reports it there.
// Delivery runs in a goroutine so callers never block on the network.
func NotifyError(systemError error) {
	go func(systemError error) {
		logrus.Error(systemError)

		conf, err := config.Fetch()
		if err != nil {
			log.Println(err)
			return
		}

		if conf.Notification.Slack.WebhookUrl != "" {
			SlackNotification(systemError)
		}
	}(systemError)
}
