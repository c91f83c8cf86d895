package upload

import "testing"

func TestValidateAccessConfig(t *testing.T) {
	cases := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"public and stored", Request{IsPublic: true, IsPrivate: false, IsStored: true}, false},
		{"public but not stored", Request{IsPublic: true, IsPrivate: false, IsStored: false}, true},
		{"private and not stored", Request{IsPublic: false, IsPrivate: true, IsStored: false}, false},
		{"both public and private", Request{IsPublic: true, IsPrivate: true}, true},
		{"neither public nor private", Request{IsPublic: false, IsPrivate: false}, true},
	}
	for _, tc := range cases {
		err := validateAccessConfig(tc.req)
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: validateAccessConfig() error = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
	}
}
