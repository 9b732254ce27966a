package transformers

import (
	"context"
	"net/netip"
	"testing"

	"flaredns/config"
)

func TestMaskRewriteCIDR(t *testing.T) {
	tr, err := newMaskRewrite(context.Background(), config.TransformerConfig{
		Type:   "mask_rewrite",
		Config: map[string]any{"mask": "64", "overwrite": "::1234"},
	})
	if err != nil {
		t.Fatalf("newMaskRewrite failed: %s", err)
	}

	in := netip.MustParseAddr("2001:db8:1:2:aaaa:bbbb:cccc:dddd").AsSlice()
	out, err := tr.Transform(context.Background(), in)
	if err != nil {
		t.Fatalf("Transform failed: %s", err)
	}
	if expected, got := "2001:db8:1:2::1234", out.String(); expected != got {
		t.Fatalf("Expected %q; got %q", expected, got)
	}
}

func TestMaskRewriteAddressMask(t *testing.T) {
	tr, err := newMaskRewrite(context.Background(), config.TransformerConfig{
		Type:   "mask_rewrite",
		Config: map[string]any{"mask": "255.255.255.0", "overwrite": "0.0.0.9"},
	})
	if err != nil {
		t.Fatalf("newMaskRewrite failed: %s", err)
	}

	in := netip.MustParseAddr("192.0.2.77").AsSlice()
	out, err := tr.Transform(context.Background(), in)
	if err != nil {
		t.Fatalf("Transform failed: %s", err)
	}
	if expected, got := "192.0.2.9", out.String(); expected != got {
		t.Fatalf("Expected %q; got %q", expected, got)
	}
}

func TestMaskRewriteFamilyMismatch(t *testing.T) {
	tr, err := newMaskRewrite(context.Background(), config.TransformerConfig{
		Type:   "mask_rewrite",
		Config: map[string]any{"mask": "64", "overwrite": "::1234"},
	})
	if err != nil {
		t.Fatalf("newMaskRewrite failed: %s", err)
	}

	in := netip.MustParseAddr("192.0.2.77").AsSlice()
	if _, err := tr.Transform(context.Background(), in); err == nil {
		t.Fatal("Expected an error for a v4 input to a v6 rewrite; got err == nil")
	}
}

func TestMaskRewriteBadConfig(t *testing.T) {
	cases := []map[string]any{
		{"mask": "200", "overwrite": "::1"},
		{"mask": "nonsense", "overwrite": "::1"},
		{"mask": "255.255.0.0", "overwrite": "::1"},
	}

	for _, c := range cases {
		if _, err := newMaskRewrite(context.Background(), config.TransformerConfig{Type: "mask_rewrite", Config: c}); err == nil {
			t.Fatalf("Expected an error for config %v; got err == nil", c)
		}
	}
}
