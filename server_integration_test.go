package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"quizbe/pkg/cardocr"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("integration-test-secret")
	initDB()
	r := gin.Default()
	setupRoutes(r)
	return r
}

func adminToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"identifier": "admin@example.com", "password": "admin123"})
	resp := performRequest(r, http.MethodPost, "/api/auth/login", bytes.NewBuffer(body), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("admin login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if out.Data.Token == "" {
		t.Fatalf("empty admin token: %s", resp.Body.String())
	}
	return out.Data.Token
}

func TestStudentFlow(t *testing.T) {
	r := setupTestServer(t)
	suffix := fmt.Sprintf("%06d", time.Now().UnixNano()%1_000_000)
	email := "flow" + suffix + "@example.com"
	matricule := "9" + suffix[:3] + "i" + suffix[3:]

	// 1. Register student
	regBody, _ := json.Marshal(map[string]any{
		"email": email, "password": "pass123",
		"firstName": "Test", "lastName": "Flow",
		"matricule": matricule,
	})
	resp := performRequest(r, http.MethodPost, "/api/auth/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 201 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 2. Login with email
	loginBody, _ := json.Marshal(map[string]string{"identifier": email, "password": "pass123"})
	resp = performRequest(r, http.MethodPost, "/api/auth/login", bytes.NewBuffer(loginBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp struct {
		Data struct {
			Token string `json:"token"`
			User  struct {
				Matricule string `json:"matricule"`
				Role      string `json:"role"`
			} `json:"user"`
		} `json:"data"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token := loginResp.Data.Token
	if token == "" {
		t.Fatalf("empty token in login response: %s", resp.Body.String())
	}
	if loginResp.Data.User.Role != "student" {
		t.Errorf("role = %q, want student", loginResp.Data.User.Role)
	}

	// 3. Login with matricule works too
	loginBody, _ = json.Marshal(map[string]string{"identifier": matricule, "password": "pass123"})
	resp = performRequest(r, http.MethodPost, "/api/auth/login", bytes.NewBuffer(loginBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("matricule login failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 4. Profile
	resp = performRequest(r, http.MethodGet, "/api/auth/profile", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("profile failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 5. Change password, old password stops working
	cpBody, _ := json.Marshal(map[string]string{"currentPassword": "pass123", "newPassword": "newpass456"})
	resp = performRequest(r, http.MethodPost, "/api/auth/change-password", bytes.NewBuffer(cpBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("change password failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodPost, "/api/auth/login", bytes.NewBuffer(loginBody), "", "application/json")
	if resp.Code != 401 {
		t.Fatalf("old password still accepted status=%d", resp.Code)
	}

	// 6. Students cannot hit admin routes
	resp = performRequest(r, http.MethodGet, "/api/admin/years", nil, token, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student on admin route, got %d", resp.Code)
	}

	// 7. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/api/auth/profile", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing token got %d", unauth.Code)
	}
}

func TestAdminQuizFlow(t *testing.T) {
	r := setupTestServer(t)
	token := adminToken(t, r)
	suffix := fmt.Sprintf("%06d", time.Now().UnixNano()%1_000_000)

	post := func(path string, payload any) map[string]any {
		t.Helper()
		body, _ := json.Marshal(payload)
		resp := performRequest(r, http.MethodPost, path, bytes.NewBuffer(body), token, "application/json")
		if resp.Code != 201 {
			t.Fatalf("POST %s failed status=%d body=%s", path, resp.Code, resp.Body.String())
		}
		var out map[string]any
		_ = json.Unmarshal(resp.Body.Bytes(), &out)
		return out["data"].(map[string]any)
	}
	idOf := func(data map[string]any) uint {
		return uint(data["ID"].(float64))
	}

	year := post("/api/admin/years", map[string]any{"name": "TY-" + suffix, "active": false})
	class := post("/api/admin/classes", map[string]any{
		"name": "Terminale C", "code": "TC-" + suffix, "academicYearId": idOf(year),
	})
	course := post("/api/admin/courses", map[string]any{
		"title": "Mathématiques", "classId": idOf(class),
	})
	question := post("/api/admin/questions", map[string]any{
		"courseId": idOf(course),
		"text":     "2 + 2 ?",
		"points":   2,
		"choices": []map[string]any{
			{"text": "3", "correct": false},
			{"text": "4", "correct": true},
		},
	})
	quiz := post("/api/admin/quizzes", map[string]any{
		"title": "Contrôle 1", "courseId": idOf(course),
		"questionIds": []uint{idOf(question)},
	})

	// Publish
	resp := performRequest(r, http.MethodPut, fmt.Sprintf("/api/admin/quizzes/%d/publish", idOf(quiz)), bytes.NewBufferString("{}"), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("publish failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// Published quizzes cannot be edited
	body, _ := json.Marshal(map[string]any{"title": "Renamed"})
	resp = performRequest(r, http.MethodPut, fmt.Sprintf("/api/admin/quizzes/%d", idOf(quiz)), bytes.NewBuffer(body), token, "application/json")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 editing published quiz, got %d", resp.Code)
	}

	// Student in the class takes the quiz
	classID := idOf(class)
	email := "taker" + suffix + "@example.com"
	regBody, _ := json.Marshal(map[string]any{
		"email": email, "password": "pass123",
		"firstName": "Quiz", "lastName": "Taker",
		"matricule": "8" + suffix[:3] + "i" + suffix[3:],
		"classId":   classID,
	})
	resp = performRequest(r, http.MethodPost, "/api/auth/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 201 {
		t.Fatalf("register taker failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	loginBody, _ := json.Marshal(map[string]string{"identifier": email, "password": "pass123"})
	resp = performRequest(r, http.MethodPost, "/api/auth/login", bytes.NewBuffer(loginBody), "", "application/json")
	var loginResp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	studentToken := loginResp.Data.Token

	// Quiz payload for a student must not reveal correct choices
	resp = performRequest(r, http.MethodGet, fmt.Sprintf("/api/quizzes/%d", idOf(quiz)), nil, studentToken, "")
	if resp.Code != 200 {
		t.Fatalf("get quiz failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if bytes.Contains(resp.Body.Bytes(), []byte(`"Correct":true`)) {
		t.Error("student quiz payload leaks correct choices")
	}

	var quizView struct {
		Data struct {
			Questions []struct {
				Question struct {
					ID      uint `json:"ID"`
					Choices []struct {
						ID   uint   `json:"ID"`
						Text string `json:"Text"`
					} `json:"Choices"`
				} `json:"Question"`
			} `json:"Questions"`
		} `json:"data"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &quizView)
	if len(quizView.Data.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(quizView.Data.Questions))
	}
	q := quizView.Data.Questions[0].Question
	var rightChoice uint
	for _, ch := range q.Choices {
		if ch.Text == "4" {
			rightChoice = ch.ID
		}
	}

	// Submit with the right answer
	subBody, _ := json.Marshal(map[string]any{
		"answers": []map[string]any{{"questionId": q.ID, "choiceId": rightChoice}},
	})
	resp = performRequest(r, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/submissions", idOf(quiz)), bytes.NewBuffer(subBody), studentToken, "application/json")
	if resp.Code != 201 {
		t.Fatalf("submit failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var subResp struct {
		Data struct {
			Score    int `json:"score"`
			MaxScore int `json:"maxScore"`
		} `json:"data"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &subResp)
	if subResp.Data.Score != 2 || subResp.Data.MaxScore != 2 {
		t.Errorf("score = %d/%d, want 2/2", subResp.Data.Score, subResp.Data.MaxScore)
	}

	// Second submission is rejected
	resp = performRequest(r, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/submissions", idOf(quiz)), bytes.NewBuffer(subBody), studentToken, "application/json")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 on resubmission, got %d", resp.Code)
	}

	// Results listing
	resp = performRequest(r, http.MethodGet, "/api/submissions", nil, studentToken, "")
	if resp.Code != 200 {
		t.Fatalf("list submissions failed status=%d body=%s", resp.Code, resp.Body.String())
	}
}

func TestCardLoginAgainstDatabase(t *testing.T) {
	r := setupTestServer(t)
	suffix := fmt.Sprintf("%06d", time.Now().UnixNano()%1_000_000)
	matricule := "7" + suffix[:3] + "i" + suffix[3:]

	regBody, _ := json.Marshal(map[string]any{
		"email": "card" + suffix + "@example.com", "password": "pass123",
		"firstName": "Igre Urbain", "lastName": "Lepontife",
		"matricule": matricule,
	})
	resp := performRequest(r, http.MethodPost, "/api/auth/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 201 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// Recognizer stub emits a realistic misread scan: matricule digits run
	// together, accents mangled. The cleanup stage must repair it.
	cardText := "INSTITUT SAINT JEAN\nCARTE D'ETUDIANT\nMatricule; " + matricule[:1] + suffix[:3] + "1" + suffix[3:] + "\nNom (s): IGRE URBAIN LEPONTIFE\nNéfe) le 01/01/2000"
	cardPipeline = cardocr.NewWithRecognizer(cardocr.DefaultConfig(), recognizerFunc(func(ctx context.Context, image []byte) (string, error) {
		return cardText, nil
	}))

	body, ct := multipartImage(t, "cardImage", "image/png", pngBytes(t))
	resp = performRequest(r, http.MethodPost, "/api/auth/card-login", body, "", ct)
	if resp.Code != 200 {
		t.Fatalf("card login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Token    string `json:"token"`
			CardInfo struct {
				Matricule string `json:"matricule"`
			} `json:"cardInfo"`
		} `json:"data"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if !out.Success || out.Data.Token == "" {
		t.Fatalf("bad card login response: %s", resp.Body.String())
	}
	if out.Data.CardInfo.Matricule != matricule {
		t.Errorf("card matricule = %q, want %q", out.Data.CardInfo.Matricule, matricule)
	}

	// Unknown matricule yields 404 with guidance
	unknownText := "Matricule: 0000i999\nNom (s): IGRE URBAIN LEPONTIFE"
	cardPipeline = cardocr.NewWithRecognizer(cardocr.DefaultConfig(), recognizerFunc(func(ctx context.Context, image []byte) (string, error) {
		return unknownText, nil
	}))
	body, ct = multipartImage(t, "cardImage", "image/png", pngBytes(t))
	resp = performRequest(r, http.MethodPost, "/api/auth/card-login", body, "", ct)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown matricule, got %d body=%s", resp.Code, resp.Body.String())
	}

	// Name mismatch yields 401
	mismatchText := "Matricule: " + matricule + "\nNom (s): AUTRE PERSONNE TOTALEMENT"
	cardPipeline = cardocr.NewWithRecognizer(cardocr.DefaultConfig(), recognizerFunc(func(ctx context.Context, image []byte) (string, error) {
		return mismatchText, nil
	}))
	body, ct = multipartImage(t, "cardImage", "image/png", pngBytes(t))
	resp = performRequest(r, http.MethodPost, "/api/auth/card-login", body, "", ct)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for name mismatch, got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	initDB()
}
