package s3

import "testing"

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"bucket and region", Config{Bucket: "state", Region: "eu-west-1"}, false},
		{"missing bucket", Config{Region: "eu-west-1"}, true},
		{"missing region", Config{Bucket: "state"}, true},
		{"half credentials", Config{Bucket: "state", Region: "eu-west-1", AccessKey: "AK"}, true},
		{"storage class", Config{Bucket: "state", Region: "eu-west-1", StorageClass: "STANDARD_IA"}, false},
		{"unknown storage class", Config{Bucket: "state", Region: "eu-west-1", StorageClass: "COLD"}, true},
		{"kms", Config{Bucket: "state", Region: "eu-west-1", ServerSideEncryption: "aws:kms", KMSKeyID: "k1"}, false},
		{"unknown encryption", Config{Bucket: "state", Region: "eu-west-1", ServerSideEncryption: "rot13"}, true},
		{"kms key without kms", Config{Bucket: "state", Region: "eu-west-1", ServerSideEncryption: "AES256", KMSKeyID: "k1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{Bucket: "state"}
	c.ApplyDefaults()
	if c.Region != DefaultRegion {
		t.Errorf("expected default region, got %q", c.Region)
	}
	c.Region = "ap-south-1"
	c.ApplyDefaults()
	if c.Region != "ap-south-1" {
		t.Errorf("ApplyDefaults overwrote region: %q", c.Region)
	}
}
