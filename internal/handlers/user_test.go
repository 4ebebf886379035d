package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/groupmeet/groupmeet/internal/models"
	"github.com/groupmeet/groupmeet/internal/services"
)

func TestUserHandler_Profile_NotFound(t *testing.T) {
	handler := NewUserHandler(&mockUserService{
		ProfileFunc: func(ctx context.Context, userID, viewerID uuid.UUID) (*models.UserProfile, error) {
			return nil, services.ErrUserNotFound
		},
	}, &mockInterestService{})

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/users/"+userID.String(), nil)
	req.SetPathValue("id", userID.String())
	rr := httptest.NewRecorder()
	handler.Profile(rr, req)

	assertErrorResponse(t, rr, http.StatusNotFound, services.ErrUserNotFound.Error())
}

func TestUserHandler_Profile_Success(t *testing.T) {
	userID := uuid.New()
	viewer := testUser()

	handler := NewUserHandler(&mockUserService{
		ProfileFunc: func(ctx context.Context, id, viewerID uuid.UUID) (*models.UserProfile, error) {
			if id != userID {
				t.Errorf("expected user %s, got %s", userID, id)
			}
			if viewerID != viewer.ID {
				t.Errorf("expected viewer %s, got %s", viewer.ID, viewerID)
			}
			return &models.UserProfile{Username: "bob"}, nil
		},
	}, &mockInterestService{})

	req := authedRequest(http.MethodGet, "/api/users/"+userID.String(), nil, viewer)
	req.SetPathValue("id", userID.String())
	rr := httptest.NewRecorder()
	handler.Profile(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp models.UserProfile
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Username != "bob" {
		t.Errorf("expected username bob, got %q", resp.Username)
	}
}

func TestUserHandler_Profile_AnonymousViewer(t *testing.T) {
	userID := uuid.New()

	handler := NewUserHandler(&mockUserService{
		ProfileFunc: func(ctx context.Context, id, viewerID uuid.UUID) (*models.UserProfile, error) {
			if viewerID != uuid.Nil {
				t.Errorf("expected nil viewer, got %s", viewerID)
			}
			return &models.UserProfile{Username: "bob", FriendshipStatus: models.ProfileFriendshipNone}, nil
		},
	}, &mockInterestService{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/"+userID.String(), nil)
	req.SetPathValue("id", userID.String())
	rr := httptest.NewRecorder()
	handler.Profile(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestUserHandler_UpdateProfile_BlankFirstName(t *testing.T) {
	handler := NewUserHandler(&mockUserService{}, &mockInterestService{})

	body := `{"first_name":"   "}`
	req := authedRequest(http.MethodPatch, "/api/users/me", strings.NewReader(body), testUser())
	rr := httptest.NewRecorder()
	handler.UpdateProfile(rr, req)

	assertErrorResponse(t, rr, http.StatusBadRequest, "First name cannot be blank")
}

func TestUserHandler_UpdateProfile_Success(t *testing.T) {
	user := testUser()
	var got models.UpdateProfileParams

	handler := NewUserHandler(&mockUserService{
		UpdateProfileFunc: func(ctx context.Context, userID uuid.UUID, params models.UpdateProfileParams) (*models.User, error) {
			if userID != user.ID {
				t.Errorf("expected user %s, got %s", user.ID, userID)
			}
			got = params
			return user, nil
		},
	}, &mockInterestService{})

	body := `{"location":"Berlin","interests":["hiking","chess"]}`
	req := authedRequest(http.MethodPatch, "/api/users/me", strings.NewReader(body), user)
	rr := httptest.NewRecorder()
	handler.UpdateProfile(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.Location == nil || *got.Location != "Berlin" {
		t.Errorf("unexpected location: %v", got.Location)
	}
	if got.FirstName != nil {
		t.Errorf("expected nil first name, got %v", *got.FirstName)
	}
	if len(got.Interests) != 2 {
		t.Errorf("expected 2 interests, got %v", got.Interests)
	}
}

func TestUserHandler_Search_UnknownGender(t *testing.T) {
	handler := NewUserHandler(&mockUserService{}, &mockInterestService{})

	req := authedRequest(http.MethodGet, "/api/users?genders=female,robot", nil, testUser())
	rr := httptest.NewRecorder()
	handler.Search(rr, req)

	assertErrorResponse(t, rr, http.StatusBadRequest, "Unknown gender value")
}

func TestUserHandler_Search_BuildsCriteria(t *testing.T) {
	var got models.UserSearchCriteria

	handler := NewUserHandler(&mockUserService{
		SearchFunc: func(ctx context.Context, criteria models.UserSearchCriteria, page models.PageRequest) (*models.UserSearchPage, error) {
			got = criteria
			return &models.UserSearchPage{}, nil
		},
	}, &mockInterestService{})

	user := testUser()
	target := "/api/users?search=bob&location=Berlin&genders=male,other&interests=hiking"
	req := authedRequest(http.MethodGet, target, nil, user)
	rr := httptest.NewRecorder()
	handler.Search(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.SearchTerm != "bob" || got.Location != "Berlin" {
		t.Errorf("unexpected criteria: %+v", got)
	}
	if got.ExcludeUserID != user.ID {
		t.Errorf("expected searcher %s excluded, got %s", user.ID, got.ExcludeUserID)
	}
	if len(got.Genders) != 2 || got.Genders[0] != models.GenderMale {
		t.Errorf("unexpected genders: %v", got.Genders)
	}
	if len(got.Interests) != 1 || got.Interests[0] != "hiking" {
		t.Errorf("unexpected interests: %v", got.Interests)
	}
}

func TestUserHandler_UpgradePro_Unauthenticated(t *testing.T) {
	handler := NewUserHandler(&mockUserService{}, &mockInterestService{})

	req := httptest.NewRequest(http.MethodPost, "/api/users/me/pro", nil)
	rr := httptest.NewRecorder()
	handler.UpgradePro(rr, req)

	assertErrorResponse(t, rr, http.StatusUnauthorized, "Not authenticated")
}

func TestUserHandler_UpgradePro_Success(t *testing.T) {
	user := testUser()
	var setID uuid.UUID
	var setPro bool

	handler := NewUserHandler(&mockUserService{
		SetProFunc: func(ctx context.Context, userID uuid.UUID, isPro bool) error {
			setID = userID
			setPro = isPro
			return nil
		},
		ProfileFunc: func(ctx context.Context, userID, viewerID uuid.UUID) (*models.UserProfile, error) {
			return &models.UserProfile{ID: userID, Username: user.Username, IsPro: true}, nil
		},
	}, &mockInterestService{})

	req := authedRequest(http.MethodPost, "/api/users/me/pro", nil, user)
	rr := httptest.NewRecorder()
	handler.UpgradePro(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if setID != user.ID || !setPro {
		t.Errorf("expected pro enabled for %s, got id=%s pro=%v", user.ID, setID, setPro)
	}

	var profile models.UserProfile
	if err := json.NewDecoder(rr.Body).Decode(&profile); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !profile.IsPro {
		t.Errorf("expected pro profile, got %+v", profile)
	}
}

func TestUserHandler_DowngradePro_Success(t *testing.T) {
	user := testUser()
	var setPro = true

	handler := NewUserHandler(&mockUserService{
		SetProFunc: func(ctx context.Context, userID uuid.UUID, isPro bool) error {
			setPro = isPro
			return nil
		},
	}, &mockInterestService{})

	req := authedRequest(http.MethodDelete, "/api/users/me/pro", nil, user)
	rr := httptest.NewRecorder()
	handler.DowngradePro(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if setPro {
		t.Error("expected pro flag cleared")
	}
}

func TestUserHandler_Interests_PassesPrefix(t *testing.T) {
	handler := NewUserHandler(&mockUserService{}, &mockInterestService{
		ListFunc: func(ctx context.Context, prefix string) ([]models.Interest, error) {
			if prefix != "hik" {
				t.Errorf("expected prefix hik, got %q", prefix)
			}
			return []models.Interest{{ID: uuid.New(), Name: "hiking"}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/interests?prefix=hik", nil)
	rr := httptest.NewRecorder()
	handler.Interests(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp []models.Interest
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp) != 1 || resp[0].Name != "hiking" {
		t.Errorf("unexpected interests: %v", resp)
	}
}
