package manifest

import (
	"strings"
	"testing"
)

func TestDefaultCatalogOrder(t *testing.T) {
	m := Default()

	want := []string{"kn", "k9s", "yq", "ibmcloud", "k3d", "oc"}
	if len(m.Tools) != len(want) {
		t.Fatalf("catalog has %d tools, want %d", len(m.Tools), len(want))
	}
	for i, name := range want {
		if m.Tools[i].Name != name {
			t.Errorf("tool[%d] = %q, want %q", i, m.Tools[i].Name, name)
		}
	}
}

func TestDefaultCatalogValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestDefaultCatalogURLsEmbedArch(t *testing.T) {
	m := Default()

	kn := m.Tool("kn")
	if kn == nil {
		t.Fatal("kn missing from catalog")
	}
	url := kn.RenderURL("amd64")
	if !strings.Contains(url, "amd64") {
		t.Errorf("kn URL does not embed resolved arch: %q", url)
	}
	if strings.Contains(url, "{") {
		t.Errorf("kn URL has unrendered placeholders: %q", url)
	}
}

func TestDefaultIBMCloudARM64Branch(t *testing.T) {
	ibm := Default().Tool("ibmcloud")
	if ibm == nil {
		t.Fatal("ibmcloud missing from catalog")
	}

	arm64URL := ibm.RenderURL("arm64")
	defaultURL := ibm.RenderURL("amd64")
	if arm64URL == defaultURL {
		t.Error("ibmcloud arm64 URL should differ from the default branch")
	}
	if !strings.Contains(arm64URL, "arm64") {
		t.Errorf("ibmcloud arm64 URL = %q, want arm64-specific endpoint", arm64URL)
	}
}

func TestDefaultOCLinks(t *testing.T) {
	oc := Default().Tool("oc")
	if oc == nil {
		t.Fatal("oc missing from catalog")
	}
	if oc.Target != "/usr/local/bin/oc" {
		t.Errorf("oc target = %q", oc.Target)
	}
	if len(oc.Links) != 1 || oc.Links[0] != "/usr/bin/oc" {
		t.Errorf("oc links = %v, want [/usr/bin/oc]", oc.Links)
	}
	if oc.ArchiveMember != "oc" {
		t.Errorf("oc archive member = %q", oc.ArchiveMember)
	}
}

func TestDefaultProfileLines(t *testing.T) {
	m := Default()

	var withLines []string
	for _, tool := range m.Tools {
		if len(tool.ProfileLines) > 0 {
			withLines = append(withLines, tool.Name)
		}
	}
	if len(withLines) != 2 {
		t.Fatalf("tools with profile lines = %v, want exactly two", withLines)
	}
	if withLines[0] != "ibmcloud" || withLines[1] != "k3d" {
		t.Errorf("tools with profile lines = %v, want [ibmcloud k3d]", withLines)
	}
}
