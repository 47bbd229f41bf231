package routestack

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral(t *testing.T) {
	l := NewLiteral("/about", map[string]string{"page": "about"})

	tests := []struct {
		name   string
		path   string
		offset int
		want   bool
	}{
		{"exact", "/about", 0, true},
		{"trailing slash", "/about/", 0, false},
		{"prefix only", "/about/team", 0, false},
		{"with offset", "/en/about", 3, true},
		{"offset past end", "/a", 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := l.Match(httptest.NewRequest("GET", tt.path, nil), tt.offset)
			assert.Equal(t, tt.want, ok)
			if ok {
				assert.Equal(t, "about", m.Param("page", ""))
				assert.Equal(t, len("/about"), m.Length)
			}
		})
	}

	path, err := l.Assemble(map[string]string{"ignored": "x"})
	require.NoError(t, err)
	assert.Equal(t, "/about", path)
}

func TestNewSegmentErrors(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		constraints map[string]string
	}{
		{"no leading slash", "user/:id", nil},
		{"empty param name", "/user/:", nil},
		{"bad param name", "/user/:1d", nil},
		{"duplicate param", "/:id/:id", nil},
		{"constraint for unknown param", "/user/:id", map[string]string{"name": `\w+`}},
		{"bad constraint", "/user/:id", map[string]string{"id": `(`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSegment(tt.pattern, tt.constraints, nil)
			assert.ErrorIs(t, err, ErrInvalidRoute)
		})
	}
}

func TestSegmentMatch(t *testing.T) {
	s, err := NewSegment("/user/:id/:action",
		map[string]string{"id": `\d+`},
		map[string]string{"action": "view"},
	)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		want   bool
		params map[string]string
	}{
		{"all params", "/user/42/edit", true, map[string]string{"id": "42", "action": "edit"}},
		{"optional trailing param", "/user/42", true, map[string]string{"id": "42", "action": "view"}},
		{"trailing slash", "/user/42/", true, map[string]string{"id": "42", "action": "view"}},
		{"constraint fails", "/user/abc", false, nil},
		{"constraint is anchored", "/user/42x", false, nil},
		{"literal mismatch", "/users/42", false, nil},
		{"too many segments", "/user/42/edit/more", false, nil},
		{"missing required", "/user", false, nil},
		{"empty param", "/user//edit", false, nil},
		{"escaped value", "/user/7/a%20b", true, map[string]string{"id": "7", "action": "a b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := s.Match(httptest.NewRequest("GET", tt.path, nil), 0)
			require.Equal(t, tt.want, ok)
			if ok {
				assert.Equal(t, tt.params, m.Params)
			}
		})
	}
}

func TestSegmentRoot(t *testing.T) {
	s, err := NewSegment("/", nil, nil)
	require.NoError(t, err)

	_, ok := s.Match(httptest.NewRequest("GET", "/", nil), 0)
	assert.True(t, ok)
	_, ok = s.Match(httptest.NewRequest("GET", "/x", nil), 0)
	assert.False(t, ok)

	path, err := s.Assemble(nil)
	require.NoError(t, err)
	assert.Equal(t, "/", path)
}

func TestSegmentOptionalOnly(t *testing.T) {
	s, err := NewSegment("/:page", nil, map[string]string{"page": "home"})
	require.NoError(t, err)

	m, ok := s.Match(httptest.NewRequest("GET", "/", nil), 0)
	require.True(t, ok)
	assert.Equal(t, "home", m.Params["page"])

	m, ok = s.Match(httptest.NewRequest("GET", "/about", nil), 0)
	require.True(t, ok)
	assert.Equal(t, "about", m.Params["page"])

	path, err := s.Assemble(map[string]string{"page": "home"})
	require.NoError(t, err)
	assert.Equal(t, "/", path)
}

func TestSegmentAssemble(t *testing.T) {
	s, err := NewSegment("/user/:id/:action",
		map[string]string{"id": `\d+`},
		map[string]string{"action": "view"},
	)
	require.NoError(t, err)

	path, err := s.Assemble(map[string]string{"id": "42", "action": "edit"})
	require.NoError(t, err)
	assert.Equal(t, "/user/42/edit", path)

	path, err = s.Assemble(map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "/user/42", path, "default trailing param is omitted")

	path, err = s.Assemble(map[string]string{"id": "42", "action": "view"})
	require.NoError(t, err)
	assert.Equal(t, "/user/42", path)

	path, err = s.Assemble(map[string]string{"id": "1", "action": "a b"})
	require.NoError(t, err)
	assert.Equal(t, "/user/1/a%20b", path)

	_, err = s.Assemble(nil)
	assert.ErrorIs(t, err, ErrMissingParam)
	var ae *AssembleError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "id", ae.Param)

	_, err = s.Assemble(map[string]string{"id": "abc"})
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestSegmentAssembleRejectsEmptyValues(t *testing.T) {
	s, err := NewSegment("/user/:id/:action", nil, map[string]string{"action": "view"})
	require.NoError(t, err)

	_, err = s.Assemble(map[string]string{"id": ""})
	require.ErrorIs(t, err, ErrInvalidParam)
	var ae *AssembleError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "id", ae.Param)

	_, err = s.Assemble(map[string]string{"id": "7", "action": ""})
	assert.ErrorIs(t, err, ErrInvalidParam)

	// Whatever Assemble produces, Match accepts.
	path, err := s.Assemble(map[string]string{"id": "7", "action": "edit"})
	require.NoError(t, err)
	m, ok := s.Match(httptest.NewRequest("GET", path, nil), 0)
	require.True(t, ok)
	assert.Equal(t, "7", m.Params["id"])
	assert.Equal(t, "edit", m.Params["action"])
}

func TestMethod(t *testing.T) {
	_, err := NewMethod(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidRoute)

	m, err := NewMethod([]string{"get", " head "}, map[string]string{"handler": "read"})
	require.NoError(t, err)

	match, ok := m.Match(httptest.NewRequest("GET", "/anything", nil), 0)
	require.True(t, ok)
	assert.Equal(t, "read", match.Param("handler", ""))
	assert.Zero(t, match.Length)

	_, ok = m.Match(httptest.NewRequest("HEAD", "/", nil), 0)
	assert.True(t, ok)
	_, ok = m.Match(httptest.NewRequest("POST", "/", nil), 0)
	assert.False(t, ok)

	path, err := m.Assemble(nil)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestMatchParam(t *testing.T) {
	m := &Match{Params: map[string]string{"a": "1"}}
	assert.Equal(t, "1", m.Param("a", "x"))
	assert.Equal(t, "x", m.Param("b", "x"))
}

func TestPrioritized(t *testing.T) {
	r := Prioritized(NewLiteral("/", nil), 7)
	pr, ok := r.(Prioritizer)
	require.True(t, ok)
	assert.Equal(t, 7, pr.Priority())

	_, ok = r.Match(httptest.NewRequest("GET", "/", nil), 0)
	assert.True(t, ok)
}
