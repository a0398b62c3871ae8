package usuario

import "testing"

func TestPasswordPolicyViolation(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 123!", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcdefg123", want: pwdComplexityTag},
		{name: "no upper", pwd: "abcdefg123!", want: pwdComplexityTag},
		{name: "similar to attrs", pwd: "Mariana1!", attrs: []string{"", "mariana1"}, want: pwdAttrSimTag},
		{name: "valid", pwd: "Qx7#vLm2pR", attrs: []string{"ana", "lopez"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := passwordPolicyViolation(tt.pwd, tt.attrs...); got != tt.want {
				t.Errorf("passwordPolicyViolation(%q) = %q, want %q", tt.pwd, got, tt.want)
			}
		})
	}
}
