package session

import (
	"sync"
	"testing"
)

var ada = User{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", Role: RoleAdmin}

// TestReduce verifies the login and logout transitions.
func TestReduce(t *testing.T) {
	tests := []struct {
		name   string
		state  State
		action Action
		want   State
	}{
		{"login from guest", Guest(), Login(ada), State{LoggedIn: true, User: ada}},
		{"logout discards user", State{LoggedIn: true, User: ada}, Logout(), Guest()},
		{"logout from guest", Guest(), Logout(), Guest()},
		{"unknown action", State{LoggedIn: true, User: ada}, Action{Type: "NOPE"}, State{LoggedIn: true, User: ada}},
		{"guest role upgraded on login", Guest(), Login(User{Email: "x@y", Role: RoleGuest}),
			State{LoggedIn: true, User: User{Email: "x@y", Role: RoleUser}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reduce(tt.state, tt.action); got != tt.want {
				t.Errorf("Reduce() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestStore_Dispatch verifies the container applies the reducer.
func TestStore_Dispatch(t *testing.T) {
	s := NewStore()
	if s.Current().LoggedIn || s.Current().User.Role != RoleGuest {
		t.Fatalf("expected guest initial state, got %+v", s.Current())
	}
	if got := s.Dispatch(Login(ada)); !got.LoggedIn || !got.IsAdmin() {
		t.Fatalf("expected admin session, got %+v", got)
	}
	if got := s.Dispatch(Logout()); got.LoggedIn || got.User.Email != "" || got.User.Role != RoleGuest {
		t.Fatalf("expected guest after logout, got %+v", got)
	}
}

// TestStore_Concurrent verifies dispatch is safe under concurrent use.
func TestStore_Concurrent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Dispatch(Login(ada))
			} else {
				s.Dispatch(Logout())
			}
			_ = s.Current()
		}(i)
	}
	wg.Wait()
}

// TestUser_DisplayName verifies name joining.
func TestUser_DisplayName(t *testing.T) {
	if got := ada.DisplayName(); got != "Ada Lovelace" {
		t.Errorf("got %q", got)
	}
	if got := (User{LastName: "Hopper"}).DisplayName(); got != "Hopper" {
		t.Errorf("got %q", got)
	}
}
