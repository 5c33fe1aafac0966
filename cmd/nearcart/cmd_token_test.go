package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nearcart/pkg/auth"
)

func issue(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"token:issue"}, args...))
	err := rootCmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestTokenIssue(t *testing.T) {
	tok, err := issue("--user", "2", "--role", "shop_owner", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(2), claims.UserID)
	assert.Equal(t, "shop_owner", claims.Role)
}

func TestTokenIssueValidatesFlags(t *testing.T) {
	_, err := issue("--user", "0", "--role", "customer", "--ttl", "1h")
	assert.ErrorContains(t, err, "user")

	_, err = issue("--user", "1", "--role", "root", "--ttl", "1h")
	assert.ErrorContains(t, err, "role")

	_, err = issue("--user", "1", "--role", "customer", "--ttl", "-1h")
	assert.ErrorContains(t, err, "ttl")
}
