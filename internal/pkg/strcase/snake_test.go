package strcase

import "testing"

func TestToLowerSnake(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "Phone", want: "phone"},
		{in: "FullName", want: "full_name"},
		{in: "OTP", want: "otp"},
		{in: "userID", want: "user_id"},
		{in: "HTTPServer", want: "http_server"},
		{in: "RefreshToken", want: "refresh_token"},
		{in: "already_snake", want: "already_snake"},
		{in: "Code2FA", want: "code2_fa"},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := ToLowerSnake(tc.in); got != tc.want {
				t.Fatalf("ToLowerSnake(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
