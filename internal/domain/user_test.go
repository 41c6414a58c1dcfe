package domain

import "testing"

func TestBuildSessionUser(t *testing.T) {
	photo := "uploads/1-2.png"

	tests := []struct {
		name    string
		profile Profile
		want    SessionUser
	}{
		{
			name:    "full profile",
			profile: Profile{ID: "1", Email: "ada@example.com", FullName: "Ada Lovelace", Username: "ada", ProfilePhoto: photo, Provider: ProviderGoogle},
			want:    SessionUser{ID: "1", Email: "ada@example.com", Name: "Ada Lovelace", Username: "ada", Picture: &photo, Provider: ProviderGoogle},
		},
		{
			name:    "name falls back to username",
			profile: Profile{ID: "2", Email: "bob@example.com", Username: "bobby"},
			want:    SessionUser{ID: "2", Email: "bob@example.com", Name: "bobby", Username: "bobby", Provider: ProviderPassword},
		},
		{
			name:    "name and username fall back to email local part",
			profile: Profile{ID: "3", Email: "carol@example.com"},
			want:    SessionUser{ID: "3", Email: "carol@example.com", Name: "carol", Username: "carol", Provider: ProviderPassword},
		},
		{
			name:    "defaults without email",
			profile: Profile{ID: "4"},
			want:    SessionUser{ID: "4", Name: "Radlinks member", Username: "member", Provider: ProviderPassword},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSessionUser(&tt.profile)

			if got.ID != tt.want.ID || got.Email != tt.want.Email || got.Name != tt.want.Name ||
				got.Username != tt.want.Username || got.Provider != tt.want.Provider {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}

			switch {
			case tt.want.Picture == nil && got.Picture != nil:
				t.Errorf("expected nil picture, got %q", *got.Picture)
			case tt.want.Picture != nil && (got.Picture == nil || *got.Picture != *tt.want.Picture):
				t.Errorf("expected picture %q, got %v", *tt.want.Picture, got.Picture)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  MiXeD@Example.Org\t"); got != "mixed@example.org" {
		t.Errorf("unexpected normalization %q", got)
	}
}
