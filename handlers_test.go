package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/oauth2"
)

func upload(t *testing.T, r http.Handler, token, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartFile(t, filename, content)
	return performRequest(r, http.MethodPost, "/upload-csv/", body, token, ct)
}

func TestRegisterAndToken(t *testing.T) {
	_, r := newTestServer(t)

	resp := register(t, r, "Ada@Example.com", "pw")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var u userResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, "Lovelace", u.LastName)

	resp = register(t, r, "ada@example.com", "other")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Email already registered", detail(t, resp))

	resp = login(t, r, "ada@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Bearer", resp.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Incorrect email or password", detail(t, resp))

	resp = login(t, r, "nobody@example.com", "pw")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = login(t, r, "ada@example.com", "pw")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = performRequest(r, http.MethodPost, "/register", strings.NewReader(`{"email":""}`), "", "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = performRequest(r, http.MethodPost, "/register", strings.NewReader(`{"email":"   ","password":"pw"}`), "", "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Email and password are required.", detail(t, resp))
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	s, r := newTestServer(t)

	resp := performRequest(r, http.MethodGet, "/me", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Bearer", resp.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Not authenticated", detail(t, resp))

	resp = performRequest(r, http.MethodGet, "/me", nil, "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Could not validate credentials", detail(t, resp))

	// valid signature, but the account does not exist
	ghost, err := s.auth.IssueToken("ghost@example.com")
	require.NoError(t, err)
	resp = performRequest(r, http.MethodGet, "/me", nil, ghost, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Could not validate credentials", detail(t, resp))

	token := signUp(t, r, "me@example.com")
	resp = performRequest(r, http.MethodGet, "/me", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var u userResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &u))
	assert.Equal(t, "me@example.com", u.Email)
}

func TestUploadRejections(t *testing.T) {
	_, r := newTestServer(t)
	token := signUp(t, r, "up@example.com")

	resp := upload(t, r, token, "sales.txt", salesCSV())
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid file type. Please upload a CSV file.", detail(t, resp))

	resp = upload(t, r, token, "neg.csv", "date,product_id,units_sold,price\n2024-01-01,A,-1,2\n")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "CSV Validation Error: 'units_sold' and 'price' cannot contain negative values.", detail(t, resp))

	// a rejected upload leaves nothing behind
	resp = performRequest(r, http.MethodGet, "/analysis/?filename=neg.csv", nil, token, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, fileNotFoundMsg, detail(t, resp))

	resp = upload(t, r, token, "cols.csv", "date,product_id,units_sold\n2024-01-01,A,1\n")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.True(t, strings.HasPrefix(detail(t, resp), "CSV Validation Error: Missing required columns."), detail(t, resp))

	resp = upload(t, r, token, "bad.csv", "date,product_id,units_sold,price\nyesterday,A,1,2\n")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.True(t, strings.HasPrefix(detail(t, resp), "CSV Validation Error: "), detail(t, resp))

	resp = performRequest(r, http.MethodPost, "/upload-csv/", strings.NewReader(""), token, "multipart/form-data; boundary=x")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUploadTooLarge(t *testing.T) {
	cfg := testConfig(t, "sqlite:///"+t.TempDir()+"/big.db")
	cfg.MaxUploadBytes = 512
	_, r := newTestServerWithConfig(t, cfg)
	token := signUp(t, r, "big@example.com")

	resp := upload(t, r, token, "sales.csv", salesCSV())
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestReuploadReplacesDataset(t *testing.T) {
	_, r := newTestServer(t)
	token := signUp(t, r, "re@example.com")

	require.Equal(t, http.StatusOK, upload(t, r, token, "s.csv", salesCSV()).Code)
	require.Equal(t, http.StatusOK, upload(t, r, token, "s.csv", "date,product_id,units_sold,price\n2024-02-01,Z,2,1\n").Code)

	resp := performRequest(r, http.MethodGet, "/analysis/?filename=s.csv", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"revenue_over_time":[{"date":"2024-02-01","revenue":2}],"top_products":[{"product_id":"Z","units_sold":2}]}`, resp.Body.String())

	resp = performRequest(r, http.MethodGet, "/datasets/", nil, token, "")
	var list []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.EqualValues(t, 1, list[0]["rows"])
}

func TestRejectedReuploadDropsDatasetEntry(t *testing.T) {
	_, r := newTestServer(t)
	token := signUp(t, r, "stale@example.com")
	require.Equal(t, http.StatusOK, upload(t, r, token, "s.csv", salesCSV()).Code)

	resp := upload(t, r, token, "s.csv", "date,product_id,units_sold,price\n2024-01-01,A,-1,2\n")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = performRequest(r, http.MethodGet, "/analysis/?filename=s.csv", nil, token, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = performRequest(r, http.MethodGet, "/datasets/", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestFilenameWithSpacesRoundTrips(t *testing.T) {
	_, r := newTestServer(t)
	token := signUp(t, r, "spaces@example.com")
	resp := upload(t, r, token, " my sales.csv", salesCSV())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = performRequest(r, http.MethodGet, "/analysis/?filename="+url.QueryEscape(" my sales.csv"), nil, token, "")
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = performRequest(r, http.MethodGet, "/analysis/?filename="+url.QueryEscape("   "), nil, token, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestForecastErrors(t *testing.T) {
	_, r := newTestServer(t)
	token := signUp(t, r, "fc@example.com")
	require.Equal(t, http.StatusOK, upload(t, r, token, "sales.csv", salesCSV()).Code)

	cases := []struct {
		name   string
		path   string
		status int
		detail string
	}{
		{"missing file", "/forecast/A?filename=nope.csv", http.StatusNotFound, fileNotFoundMsg},
		{"unknown product", "/forecast/Z?filename=sales.csv", http.StatusNotFound, "Product ID 'Z' not found."},
		{"case sensitive product", "/forecast/a?filename=sales.csv", http.StatusNotFound, "Product ID 'a' not found."},
		{"short history", "/forecast/B?filename=sales.csv", http.StatusBadRequest, "Not enough data. A minimum of 30 data points is required."},
		{"missing filename", "/forecast/A", http.StatusBadRequest, "Query parameter 'filename' is required."},
		{"export short history", "/export/forecast/?product_id=B&filename=sales.csv", http.StatusBadRequest, "Not enough data to export."},
		{"export unknown product", "/export/forecast/?product_id=Z&filename=sales.csv", http.StatusNotFound, "Product ID 'Z' not found."},
		{"export missing file", "/export/forecast/?product_id=A&filename=nope.csv", http.StatusNotFound, fileNotFoundMsg},
		{"export missing product", "/export/forecast/?filename=sales.csv", http.StatusBadRequest, "Query parameter 'product_id' is required."},
		{"analysis missing file", "/analysis/?filename=nope.csv", http.StatusNotFound, fileNotFoundMsg},
		{"analysis bad name", "/analysis/?filename=../x.csv", http.StatusBadRequest, "Invalid filename."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := performRequest(r, http.MethodGet, tc.path, nil, token, "")
			assert.Equal(t, tc.status, resp.Code, resp.Body.String())
			assert.Equal(t, tc.detail, detail(t, resp))
		})
	}
}

func TestDatasetsAreScopedPerUser(t *testing.T) {
	_, r := newTestServer(t)
	alice := signUp(t, r, "alice@example.com")
	bob := signUp(t, r, "bob@example.com")
	require.Equal(t, http.StatusOK, upload(t, r, alice, "sales.csv", salesCSV()).Code)

	resp := performRequest(r, http.MethodGet, "/analysis/?filename=sales.csv", nil, bob, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = performRequest(r, http.MethodGet, "/datasets/", nil, bob, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestExportXLSX(t *testing.T) {
	_, r := newTestServer(t)
	token := signUp(t, r, "xl@example.com")
	require.Equal(t, http.StatusOK, upload(t, r, token, "sales.csv", salesCSV()).Code)

	resp := performRequest(r, http.MethodGet, "/export/forecast/?product_id=A&filename=sales.csv&format=xlsx", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "attachment; filename=forecast_A.xlsx", resp.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(resp.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("forecast")
	require.NoError(t, err)
	assert.Len(t, rows, 1+40+30)
}

func TestHealthz(t *testing.T) {
	_, r := newTestServer(t)
	resp := performRequest(r, http.MethodGet, "/healthz", nil, "", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestGoogleSignInNotConfigured(t *testing.T) {
	_, r := newTestServer(t)
	for _, path := range []string{"/login/google", "/auth/callback/google?code=x&state=y"} {
		resp := performRequest(r, http.MethodGet, path, nil, "", "")
		assert.Equal(t, http.StatusServiceUnavailable, resp.Code, path)
	}
}

func TestGoogleSignIn(t *testing.T) {
	s, r := newTestServer(t)

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_ = req.ParseForm()
		if req.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"google-at","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	s.oauth = &oauth2.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8081/auth/callback/google",
		Scopes:       []string{"email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.example.com/auth",
			TokenURL:  tokenSrv.URL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	s.googleProfile = func(_ context.Context, _ *oauth2.Config, tok *oauth2.Token) (googleProfile, error) {
		if tok.AccessToken != "google-at" {
			return googleProfile{}, errors.New("unexpected token")
		}
		return googleProfile{Email: "grace@example.com", FirstName: "Grace", LastName: "Hopper"}, nil
	}

	resp := performRequest(r, http.MethodGet, "/login/google", nil, "", "")
	require.Equal(t, http.StatusTemporaryRedirect, resp.Code)
	loc, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Equal(t, "cid", loc.Query().Get("client_id"))

	callback := func(code, queryState, cookieState string) *httptest.ResponseRecorder {
		req, _ := http.NewRequest(http.MethodGet, "/auth/callback/google?code="+code+"&state="+queryState, nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: cookieState})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	resp = callback("good-code", "forged", state)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = callback("bad-code", state, state)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Could not authorize Google account.", detail(t, resp))

	resp = callback("good-code", state, state)
	require.Equal(t, http.StatusTemporaryRedirect, resp.Code, resp.Body.String())
	loc, err = url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "frontend.test", loc.Host)
	assert.Equal(t, "/auth/callback", loc.Path)
	email, err := s.auth.ParseToken(loc.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", email)

	user, err := s.auth.UserByEmail("grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Grace", user.FirstName)
	assert.Empty(t, user.HashedPassword)

	// a Google-only account cannot use the password grant
	resp = login(t, r, "grace@example.com", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// second sign-in reuses the account
	resp = callback("good-code", state, state)
	require.Equal(t, http.StatusTemporaryRedirect, resp.Code)
	var n int64
	s.db.Table("users").Where("email = ?", "grace@example.com").Count(&n)
	assert.EqualValues(t, 1, n)
}
