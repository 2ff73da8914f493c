package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveIdentity(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    UserID
		ok      bool
	}{
		{"underscore id", `{"_id":"abc"}`, "abc", true},
		{"id", `{"id":"abc"}`, "abc", true},
		{"userId", `{"userId":"abc"}`, "abc", true},
		{"userID", `{"userID":"abc"}`, "abc", true},
		{"priority order", `{"userID":"d","userId":"c","id":"b","_id":"a"}`, "a", true},
		{"id beats userId", `{"userId":"c","id":"b"}`, "b", true},
		{"numeric id", `{"id":42}`, "42", true},
		{"empty string falls through", `{"_id":"","userId":"c"}`, "c", true},
		{"null falls through", `{"_id":null,"id":"b"}`, "b", true},
		{"whitespace only", `{"id":"   "}`, "", false},
		{"no identity fields", `{"name":"bob"}`, "", false},
		{"object value ignored", `{"_id":{"$oid":"x"}}`, "", false},
		{"not an object", `"abc"`, "", false},
		{"malformed", `{`, "", false},
		{"empty", ``, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveIdentity([]byte(tc.payload))
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
