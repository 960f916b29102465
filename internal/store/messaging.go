package store

import "context"

// Message is the delivery receipt returned by the notification channel.
type Message struct {
	ID     string `json:"$id"`
	Status string `json:"status"`
}

// CreateSMS submits a text message addressed to the given user ids. Delivery
// is asynchronous on the provider side; a receipt only means acceptance.
func (c *Client) CreateSMS(ctx context.Context, messageID, content string, userIDs []string) (Message, error) {
	payload := map[string]any{
		"messageId": messageID,
		"content":   content,
		"users":     userIDs,
	}

	var m Message
	if err := c.doJSON(ctx, "messaging", "create_sms", "POST", "/messaging/messages/sms", nil, payload, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}
