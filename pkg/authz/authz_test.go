package authz_test

import (
	"testing"

	"github.com/aussiebroadwan/keystone/pkg/authz"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		required []string
		have     authz.Set
		want     bool
	}{
		{"empty requirement, any set", nil, authz.NewSet("a"), true},
		{"empty requirement, nil set", []string{}, nil, true},
		{"partial match denies", []string{"a", "b"}, authz.NewSet("a"), false},
		{"superset allows", []string{"a", "b"}, authz.NewSet("a", "b", "c"), true},
		{"exact match allows", []string{"a"}, authz.NewSet("a"), true},
		{"nil set fails closed", []string{"a"}, nil, false},
		{"empty set denies", []string{"a"}, authz.NewSet(), false},
		{"duplicate requirement", []string{"a", "a"}, authz.NewSet("a"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, authz.Authorize(tt.required, tt.have))
		})
	}
}

func TestMissing(t *testing.T) {
	t.Parallel()

	have := authz.NewSet("api_key:read")
	require.Equal(t,
		[]string{"api_key:update", "api_key:reset"},
		authz.Missing([]string{"api_key:read", "api_key:update", "api_key:reset"}, have),
	)
	require.Nil(t, authz.Missing([]string{"api_key:read"}, have))
	require.Equal(t, []string{"x"}, authz.Missing([]string{"x"}, nil))
}

func TestSet(t *testing.T) {
	t.Parallel()

	s := authz.NewSet("b", "a")
	require.True(t, s.Has("a"))
	require.False(t, s.Has("c"))
	require.ElementsMatch(t, []string{"a", "b"}, s.Codes())
	require.NotNil(t, authz.NewSet())
}
