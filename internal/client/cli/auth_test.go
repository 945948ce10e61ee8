package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/organlink/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRegisterCommand(t *testing.T) {
	var got models.RegistrationInput
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/register", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"Registration successful","user":{"id":"u1","email":"ada@example.com","firstName":"Ada","lastName":"Lovelace","userType":"DONOR"}}`))
	}))
	defer srv.Close()
	stubPasswords(t, "Str0ng!Pass", "Str0ng!Pass")

	out, err := run(t, "ada@example.com\nAda\nLovelace\n1990-05-17\n+14155550100\nDONOR\n", "register", "-a", srv.URL)
	require.NoError(t, err)

	assert.Equal(t, models.RegistrationInput{
		Email: "ada@example.com", Password: "Str0ng!Pass", ConfirmPassword: "Str0ng!Pass",
		FirstName: "Ada", LastName: "Lovelace", DateOfBirth: "1990-05-17",
		PhoneNumber: "+14155550100", UserType: "DONOR",
	}, got)
	assert.Contains(t, out, "Registration successful")
	assert.Contains(t, out, "Ada Lovelace <ada@example.com> (DONOR) id=u1")
}

func TestRegisterCommand_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Email already registered"}`))
	}))
	defer srv.Close()
	stubPasswords(t, "Str0ng!Pass", "Str0ng!Pass")

	_, err := run(t, "ada@example.com\nAda\nLovelace\n1990-05-17\n+14155550100\nDONOR\n", "register", "--server", srv.URL)
	require.Error(t, err)
	assert.Equal(t, "ada@example.com is already registered", err.Error())
}

func TestLoginCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cred models.Credential
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cred))
		if cred.Password != "Str0ng!Pass" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid email or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"Login successful","user":{"id":"u1","email":"ada@example.com"},"tokens":{"accessToken":"at","refreshToken":"rt","expiresAt":"2026-01-01T00:00:00Z"}}`))
	}))
	defer srv.Close()

	stubPasswords(t, "Str0ng!Pass")
	out, err := run(t, "ada@example.com\n", "login", "-a", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful")
	assert.Contains(t, out, "Access token:  at")
	assert.Contains(t, out, "Refresh token: rt")

	stubPasswords(t, "wrong")
	_, err = run(t, "ada@example.com\n", "login", "-a", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")
}

func TestMeAndLogoutCommands(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path == "/api/auth/logout" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`{"user":{"id":"u1","email":"ada@example.com","firstName":"Ada","lastName":"Lovelace","userType":"RECIPIENT"}}`))
	}))
	defer srv.Close()

	out, err := run(t, "", "me", "-a", srv.URL, "--access-token", "at")
	require.NoError(t, err)
	assert.Contains(t, out, "<ada@example.com> (RECIPIENT)")

	out, err = run(t, "", "logout", "-a", srv.URL, "--access-token", "at", "--refresh-token", "rt")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = run(t, "", "me", "-a", srv.URL)
	assert.Error(t, err)
}

func TestActivityCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/activity", r.URL.Path)
		require.Equal(t, "Bearer acc", r.Header.Get("Authorization"))
		if r.URL.Query().Get("limit") == "1" {
			_, _ = w.Write([]byte(`{"activity":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"activity":[` +
			`{"id":"01J","action":"LOGIN","entityType":"user","status":"FAILURE","errorMessage":"Invalid password","ipAddress":"10.0.0.1","userAgent":"curl","createdAt":"2026-03-07T10:00:00Z"},` +
			`{"id":"01H","action":"REGISTER","entityType":"user","status":"SUCCESS","ipAddress":"10.0.0.1","userAgent":"curl","createdAt":"2026-03-06T09:00:00Z"}]}`))
	}))
	defer srv.Close()

	out, err := run(t, "", "activity", "-a", srv.URL, "--access-token", "acc")
	require.NoError(t, err)
	assert.Contains(t, out, "2026-03-07T10:00:00Z  LOGIN    FAILURE 10.0.0.1  Invalid password")
	assert.Contains(t, out, "2026-03-06T09:00:00Z  REGISTER SUCCESS 10.0.0.1")

	out, err = run(t, "", "activity", "-a", srv.URL, "--access-token", "acc", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "No activity")
}

func TestRootCommand_BadConfigFile(t *testing.T) {
	_, err := run(t, "", "me", "-c", "/nonexistent/cli.json", "--access-token", "at")
	assert.Error(t, err)
}
