package locale_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/partsplug/storefront/locale"
)

type GateTestSuite struct {
	suite.Suite

	gate *locale.Gate
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateTestSuite))
}

func (s *GateTestSuite) SetupTest() {
	s.gate = locale.NewGate(locale.NewSet("ng", "gh", "ke", "za", "ng", ""))
}

func (s *GateTestSuite) TestSetDedupesAndSorts() {
	set := s.gate.Supported()
	s.Equal(4, set.Len())
	s.Equal([]string{"gh", "ke", "ng", "za"}, set.Tokens())
}

func (s *GateTestSuite) TestValidate() {
	testCases := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "supported", token: "ng", want: true},
		{name: "another supported", token: "za", want: true},
		{name: "unknown", token: "xx", want: false},
		{name: "empty", token: "", want: false},
		{name: "upper case variant", token: "NG", want: false},
		{name: "mixed case variant", token: "Gh", want: false},
		{name: "whitespace padded", token: " ng", want: false},
		{name: "path with extra segment", token: "ng/parts", want: false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, s.gate.Validate(tc.token))
			// repeated calls never change the answer
			s.Equal(tc.want, s.gate.Validate(tc.token))
		})
	}
}

func (s *GateTestSuite) TestEveryMemberValidates() {
	for _, token := range s.gate.Supported().Tokens() {
		s.True(s.gate.Validate(token), token)
		s.NoError(s.gate.Check(token))
	}
}

func (s *GateTestSuite) TestCheckReturnsNotFound() {
	err := s.gate.Check("xx")
	s.Require().Error(err)
	s.True(errors.Is(err, locale.ErrInvalidLocale))
	s.True(errors.Is(err, locale.ErrNotFound))
}

func (s *GateTestSuite) TestEmptySetRejectsEverything() {
	gate := locale.NewGate(locale.NewSet())
	s.False(gate.Validate("ng"))
	s.Empty(gate.Supported().Tokens())
}

func TestGuard(t *testing.T) {
	gate := locale.NewGate(locale.NewSet("ng", "ke"))

	var reached bool
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		seen = locale.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	mux := http.NewServeMux()
	mux.Handle("GET /{country}/", gate.Guard("country", notFound, next))
	mux.Handle("GET /{country}", gate.Guard("country", notFound, next))

	testCases := []struct {
		name        string
		path        string
		wantStatus  int
		wantReached bool
		wantLocale  string
	}{
		{name: "supported locale", path: "/ng", wantStatus: http.StatusOK, wantReached: true, wantLocale: "ng"},
		{
			name:        "extra segments ignored",
			path:        "/ke/categories/brakes",
			wantStatus:  http.StatusOK,
			wantReached: true,
			wantLocale:  "ke",
		},
		{name: "unsupported locale", path: "/xx", wantStatus: http.StatusNotFound},
		{name: "case variant", path: "/NG/categories", wantStatus: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reached, seen = false, ""

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			require.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantReached, reached)
			assert.Equal(t, tc.wantLocale, seen)
		})
	}

	assert.Empty(t, locale.FromContext(context.Background()))
}
