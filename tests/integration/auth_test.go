package integration

import (
	"net/http"
	"testing"
)

func TestAuthFlow_SignupLoginProfile(t *testing.T) {
	app := setupApp(t)

	token, userID := app.signupUser(t, "auth@test.com", "560001")
	if token == "" || userID == "" {
		t.Fatal("expected a token and user ID from signup")
	}

	// Login with the same credentials.
	rec := app.request("POST", "/api/v1/auth/login",
		`{"contact":"auth@test.com","password":"password123","role":"customer"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	loginToken := parseJSON(t, rec)["token"].(string)

	// Access profile with the login token.
	rec = app.request("GET", "/api/v1/profile", "", loginToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	profile := parseJSON(t, rec)
	if profile["contact"] != "auth@test.com" {
		t.Errorf("expected contact auth@test.com, got %v", profile["contact"])
	}
	if profile["pincode"] != "560001" {
		t.Errorf("expected pincode 560001, got %v", profile["pincode"])
	}
}

func TestAuthFlow_LoginRefreshesPincode(t *testing.T) {
	app := setupApp(t)

	app.signupUser(t, "mover@test.com", "560001")

	// The client re-derived a new pincode at login time.
	rec := app.request("POST", "/api/v1/auth/login",
		`{"contact":"mover@test.com","password":"password123","role":"customer","pincode":"110001"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	token := parseJSON(t, rec)["token"].(string)

	rec = app.request("GET", "/api/v1/profile", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if pin := parseJSON(t, rec)["pincode"]; pin != "110001" {
		t.Errorf("expected refreshed pincode 110001, got %v", pin)
	}
}

func TestAuthFlow_DuplicateContact(t *testing.T) {
	app := setupApp(t)

	app.signupUser(t, "dup@test.com", "")

	rec := app.request("POST", "/api/v1/auth/signup",
		`{"name":"Dup","contact":"dup@test.com","password":"password123","role":"customer"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate contact, got %d: %s", rec.Code, rec.Body.String())
	}
	errObj := parseJSON(t, rec)["error"].(map[string]interface{})
	if errObj["code"] != "DUPLICATE_CONTACT" {
		t.Errorf("expected DUPLICATE_CONTACT, got %v", errObj["code"])
	}
}

func TestAuthFlow_WrongPassword(t *testing.T) {
	app := setupApp(t)

	app.signupUser(t, "wrongpw@test.com", "")

	rec := app.request("POST", "/api/v1/auth/login",
		`{"contact":"wrongpw@test.com","password":"not-the-password","role":"customer"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthFlow_ProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{
		"/api/v1/profile",
		"/api/v1/expenses",
		"/api/v1/reports/summary",
		"/api/v1/price-comparison",
	} {
		rec := app.request("GET", path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401 without token, got %d", path, rec.Code)
		}
	}
}
