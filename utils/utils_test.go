package utils

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleBool(t *testing.T) {
	cases := []struct {
		in   any
		want bool
	}{
		{true, true},
		{false, false},
		{"TRUE", true},
		{"yes", true},
		{"1", true},
		{"no", false},
		{"garbage", false},
		{float64(1), true},
		{float64(0), false},
		{[]any{"true"}, true},
		{[]string{"false"}, false},
		{[]any{}, false},
		{nil, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseFlexibleBool(tc.in), "input %#v", tc.in)
	}
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"peanut", "milk", "egg"}, SplitNames(" peanut, milk,,egg ,"))
	assert.Nil(t, SplitNames(" , "))
}

func TestParseDataURI(t *testing.T) {
	t.Run("valid png", func(t *testing.T) {
		payload := base64.StdEncoding.EncodeToString([]byte("fake-png"))
		img, err := ParseDataURI("data:image/png;base64," + payload)
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, []byte("fake-png"), img.Data)
		assert.Equal(t, ".png", img.Extension())
		assert.Equal(t, "data:image/png;base64,"+payload, img.String())
	})

	t.Run("jpeg extension", func(t *testing.T) {
		img := &DataURI{ContentType: "image/jpeg"}
		assert.Equal(t, ".jpg", img.Extension())
	})

	t.Run("not a data uri", func(t *testing.T) {
		_, err := ParseDataURI("https://example.com/cake.png")
		assert.ErrorIs(t, err, ErrInvalidDataURI)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := ParseDataURI("data:text/plain;base64,aGVsbG8=")
		assert.ErrorIs(t, err, ErrInvalidDataURI)
	})

	t.Run("too large", func(t *testing.T) {
		big := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", MaxImageBytes+1)))
		_, err := ParseDataURI("data:image/png;base64," + big)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "limit")
	})
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute, time.Hour)

	access, refresh, err := issuer.IssuePair(7, "alice")
	require.NoError(t, err)

	claims, err := issuer.Parse(access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = issuer.Parse(access, TokenRefresh)
	assert.Error(t, err, "access token must not work as a refresh token")

	claims, err = issuer.Parse(refresh, TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)

	other := NewTokenIssuer("other-secret", time.Minute, time.Hour)
	_, err = other.Parse(access, TokenAccess)
	assert.Error(t, err)

	expired := NewTokenIssuer("test-secret", -time.Minute, time.Hour)
	stale, err := expired.IssueAccess(7, "alice")
	require.NoError(t, err)
	_, err = issuer.Parse(stale, TokenAccess)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestNutritionTotals(t *testing.T) {
	per100 := Totals{Calories: 200, Protein: 10, Carbs: 30, Fat: 5}
	got := Per100g(per100, 150)
	assert.InDelta(t, 300, got.Calories, 1e-9)
	assert.InDelta(t, 15, got.Protein, 1e-9)

	sum := got.Add(Totals{Calories: 0.333, Fat: 1})
	assert.Equal(t, 300.33, sum.Rounded().Calories)
	assert.InDelta(t, 8.5, sum.Fat, 1e-9)

	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 100.0, Percent(5, 0))
	assert.Equal(t, 50.0, Percent(1000, 2000))
	assert.Equal(t, GoalProgress{Actual: 1000, Target: 2000, Percent: 50}, Progress(1000, 2000))
}
