package store

import (
	"context"
	"net/url"
	"time"
)

// User is an account in the remote identity service.
type User struct {
	ID           string    `json:"$id"`
	CreatedAt    time.Time `json:"$createdAt"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Registration time.Time `json:"registration"`
}

type UserList struct {
	Total int    `json:"total"`
	Users []User `json:"users"`
}

// CreateUser creates an identity-service account. A duplicate email surfaces
// as a conflict-kind Error.
func (c *Client) CreateUser(ctx context.Context, userID, email, phone, name string) (User, error) {
	payload := map[string]any{
		"userId": userID,
		"email":  email,
		"name":   name,
	}
	if phone != "" {
		payload["phone"] = phone
	}

	var u User
	if err := c.doJSON(ctx, "users", "create_user", "POST", "/users", nil, payload, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUser fetches an account by id.
func (c *Client) GetUser(ctx context.Context, userID string) (User, error) {
	var u User
	if err := c.doJSON(ctx, "users", "get_user", "GET", "/users/"+url.PathEscape(userID), nil, nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// ListUsers lists accounts matching the given predicates.
func (c *Client) ListUsers(ctx context.Context, queries ...Query) (UserList, error) {
	params := url.Values{}
	for _, q := range queries {
		params.Add("queries[]", q.encode())
	}

	var list UserList
	if err := c.doJSON(ctx, "users", "list_users", "GET", "/users", params, nil, &list); err != nil {
		return UserList{}, err
	}
	return list, nil
}
