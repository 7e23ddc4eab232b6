package platform

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func testInfo() *Info {
	return &Info{OS: "linux", RawArch: "x86_64", Arch: ArchAMD64}
}

func TestInjectPlatformTableFields(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, testInfo()); err != nil {
		t.Fatalf("InjectPlatformTable failed: %v", err)
	}

	tests := []struct {
		script string
		want   string
	}{
		{`return platform.os`, "linux"},
		{`return platform.arch`, "amd64"},
		{`return platform.arch_raw`, "x86_64"},
		{`return tostring(platform.is_linux)`, "true"},
		{`return tostring(platform.is_amd64)`, "true"},
		{`return tostring(platform.is_arm64)`, "false"},
	}

	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			if err := L.DoString(tt.script); err != nil {
				t.Fatalf("lua error: %v", err)
			}
			got := L.Get(-1).String()
			L.Pop(1)
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.script, got, tt.want)
			}
		})
	}
}

func TestPlatformTableReadOnly(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, testInfo()); err != nil {
		t.Fatalf("InjectPlatformTable failed: %v", err)
	}

	err := L.DoString(`platform.arch = "hacked"`)
	if err == nil {
		t.Fatal("expected error writing to platform table, got none")
	}
}

func TestPlatformWhenHelper(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, testInfo()); err != nil {
		t.Fatalf("InjectPlatformTable failed: %v", err)
	}

	if err := L.DoString(`return platform.when(platform.is_amd64, "yes")`); err != nil {
		t.Fatalf("lua error: %v", err)
	}
	if got := L.Get(-1).String(); got != "yes" {
		t.Errorf("when(true, ...) = %q, want %q", got, "yes")
	}
	L.Pop(1)

	if err := L.DoString(`return platform.when(platform.is_arm64, "yes")`); err != nil {
		t.Fatalf("lua error: %v", err)
	}
	if got := L.Get(-1); got != lua.LNil {
		t.Errorf("when(false, ...) = %v, want nil", got)
	}
}
