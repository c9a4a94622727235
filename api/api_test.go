package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcCall is the request envelope as seen by the fake server.
type rpcCall struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     string `json:"id"`
}

// newTestClient starts a fake API server driven by handler and returns a
// client pointed at it.
func newTestClient(t *testing.T, handler func(t *testing.T, r *http.Request, call rpcCall) any, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var call rpcCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		require.NotEmpty(t, call.ID)

		response := handler(t, r, call)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(server.Close)

	return New(append(opts, WithBaseURL(server.URL))...)
}

func resultResponse(result any) any {
	return map[string]any{"result": result, "error": nil}
}

func errorResponse(code int, message string) any {
	return map[string]any{
		"result": nil,
		"error":  map[string]any{"code": code, "message": message},
	}
}

func TestNewBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		expected string
	}{
		{
			name:     "default",
			opts:     nil,
			expected: DefaultBaseURL,
		},
		{
			name:     "custom with trailing slash",
			opts:     []Option{WithBaseURL("https://test.example/api/")},
			expected: "https://test.example/api/",
		},
		{
			name:     "custom without trailing slash gets one appended",
			opts:     []Option{WithBaseURL("https://test.example/api")},
			expected: "https://test.example/api/",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, New(tc.opts...).BaseURL())
		})
	}
}

func TestErrorFromCode(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected error
	}{
		{
			name:     "403 means not logged in",
			code:     403,
			expected: &NotLoggedInError{Message: "m"},
		},
		{
			name:     "406 means unknown device",
			code:     406,
			expected: &UnknownDeviceError{Message: "m"},
		},
		{
			name:     "412 means signup failure",
			code:     412,
			expected: &SignupError{Message: "m"},
		},
		{
			name:     "500 is a remote error",
			code:     500,
			expected: &RemoteError{Code: 500, Message: "m"},
		},
		{
			name:     "unknown codes are remote errors",
			code:     666,
			expected: &RemoteError{Code: 666, Message: "m"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, errorFromCode(tc.code, "m"))
		})
	}
}

func TestCheckAuthToken(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, r *http.Request, call rpcCall) any {
		require.Equal(t, "checkAuthToken", call.Method)
		require.Equal(t, []any{"access_granted"}, call.Params)
		return resultResponse(call.Params[0] == "access_granted")
	})

	valid, err := client.CheckAuthToken(context.Background(), "access_granted")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestCheckAuthTokenInvalid(t *testing.T) {
	// A rejected token reports false, never an error.
	client := newTestClient(t, func(t *testing.T, r *http.Request, call rpcCall) any {
		return resultResponse(false)
	})

	valid, err := client.CheckAuthToken(context.Background(), "expired")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestCheckAuthTokenConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // immediately, so the call cannot connect

	client := New(WithBaseURL(server.URL))

	_, err := client.CheckAuthToken(context.Background(), "access_granted")

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Error(t, connErr.Unwrap())
}

func TestGetPersonDetails(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, r *http.Request, call rpcCall) any {
		require.Equal(t, "getPersonDetails", call.Method)
		return resultResponse(map[string]any{
			"id":         42,
			"first_name": "Jan-Jelle",
			"last_name":  "Kester",
			"username":   "jjkester",
			"email":      "jjkester@example.test",
			"is_member":  true,
		})
	})

	details, err := client.GetPersonDetails(context.Background(), "access_granted")
	require.NoError(t, err)

	assert.Equal(t, 42, details.ID)
	assert.Equal(t, "Jan-Jelle", details.FirstName)
	assert.Equal(t, "Kester", details.LastName)
	assert.Equal(t, "jjkester", details.Username)
	assert.True(t, details.IsMember)
}

func TestGetPersonDetailsRejectedToken(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, r *http.Request, call rpcCall) any {
		return errorResponse(403, "token rejected")
	})

	_, err := client.GetPersonDetails(context.Background(), "expired")

	var notLoggedIn *NotLoggedInError
	require.ErrorAs(t, err, &notLoggedIn)
	assert.Equal(t, "token rejected", notLoggedIn.Message)
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{
			name:   "401 means not logged in",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				var notLoggedIn *NotLoggedInError
				assert.ErrorAs(t, err, &notLoggedIn)
			},
		},
		{
			name:   "403 means not logged in",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				var notLoggedIn *NotLoggedInError
				assert.ErrorAs(t, err, &notLoggedIn)
			},
		},
		{
			name:   "502 is a remote error",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				var remoteErr *RemoteError
				require.ErrorAs(t, err, &remoteErr)
				assert.Equal(t, http.StatusBadGateway, remoteErr.Code)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			t.Cleanup(server.Close)

			client := New(WithBaseURL(server.URL))

			_, err := client.GetPersonDetails(context.Background(), "access_granted")
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>definitely not json</html>"))
	}))
	t.Cleanup(server.Close)

	client := New(WithBaseURL(server.URL))

	_, err := client.GetPersonDetails(context.Background(), "access_granted")

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Contains(t, remoteErr.Message, "invalid response from server")
}

func TestBearerHeader(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, r *http.Request, call rpcCall) any {
		require.Equal(t, "Bearer access_granted", r.Header.Get("Authorization"))
		return resultResponse(true)
	}, WithAccessToken("access_granted"))

	_, err := client.CheckAuthToken(context.Background(), "access_granted")
	require.NoError(t, err)
}

func TestNoBearerHeaderWithoutToken(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, r *http.Request, call rpcCall) any {
		require.Empty(t, r.Header.Get("Authorization"))
		return resultResponse("device-1")
	})

	deviceID, err := client.GetDeviceID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "device-1", deviceID)
}

func TestGetAuthTokenUnknownDevice(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, r *http.Request, call rpcCall) any {
		return errorResponse(406, "device unknown")
	})

	_, err := client.GetAuthToken(context.Background(), "jjkester", "hunter2", "device-0")

	var unknownDevice *UnknownDeviceError
	assert.ErrorAs(t, err, &unknownDevice)
}

func TestRevokeAuthToken(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, r *http.Request, call rpcCall) any {
		require.Equal(t, "revokeAuthToken", call.Method)
		return resultResponse(true)
	})

	revoked, err := client.RevokeAuthToken(context.Background(), "access_granted")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestGetActivityStream(t *testing.T) {
	begin := time.Date(2016, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2016, 10, 1, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(t *testing.T, r *http.Request, call rpcCall) any {
		require.Equal(t, "getActivityStream", call.Method)
		require.Equal(t, []any{"2016-09-01T00:00:00Z", "2016-10-01T00:00:00Z", nil}, call.Params)
		return resultResponse([]map[string]any{
			{"id": 7, "title": "Kick-In barbecue", "price": 5.0, "can_signup": true},
		})
	})

	// No token: the user's signup state is not requested.
	activities, err := client.GetActivityStream(context.Background(), begin, end, "")
	require.NoError(t, err)

	require.Len(t, activities, 1)
	assert.Equal(t, 7, activities[0].ID)
	assert.Equal(t, "Kick-In barbecue", activities[0].Title)
	assert.Equal(t, 5.0, activities[0].Price)
	assert.True(t, activities[0].CanSignup)
}

func TestGetActivityDetails(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, r *http.Request, call rpcCall) any {
		require.Equal(t, "getActivityDetailed", call.Method)
		require.Equal(t, []any{float64(7), "access_granted"}, call.Params)
		return resultResponse(map[string]any{
			"id":        7,
			"title":     "Kick-In barbecue",
			"signed_up": true,
			"options": []map[string]any{
				{"id": 1, "name": "Vegetarian", "price": 0.0, "required": false},
			},
		})
	})

	activity, err := client.GetActivityDetails(context.Background(), 7, "access_granted")
	require.NoError(t, err)

	assert.True(t, activity.SignedUp)
	require.Len(t, activity.Options, 1)
	assert.Equal(t, "Vegetarian", activity.Options[0].Name)
}

func TestActivitySignup(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, r *http.Request, call rpcCall) any {
		require.Equal(t, "activitySignup", call.Method)
		require.Len(t, call.Params, 4)
		require.Equal(t, float64(7), call.Params[0])
		require.Equal(t, 5.0, call.Params[1])
		require.Equal(t, "access_granted", call.Params[3])
		return resultResponse(nil)
	})

	err := client.ActivitySignup(context.Background(), 7, 5.0,
		[]SignupOptionValue{{ID: 1, Value: "yes"}}, "access_granted")
	require.NoError(t, err)
}

func TestActivitySignupFailed(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, r *http.Request, call rpcCall) any {
		return errorResponse(412, "activity is full")
	})

	err := client.ActivitySignup(context.Background(), 7, 5.0, nil, "access_granted")

	var signupErr *SignupError
	require.ErrorAs(t, err, &signupErr)
	assert.Equal(t, "activity is full", signupErr.Message)
}

func TestRevokeActivitySignup(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, r *http.Request, call rpcCall) any {
		require.Equal(t, "activityRevokeSignup", call.Method)
		require.Equal(t, []any{float64(7), "access_granted"}, call.Params)
		return resultResponse(nil)
	})

	err := client.RevokeActivitySignup(context.Background(), 7, "access_granted")
	require.NoError(t, err)
}
