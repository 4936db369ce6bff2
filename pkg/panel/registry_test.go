package panel

import (
	"errors"
	"testing"
)

func testProfile(name string) Profile {
	return Profile{
		Name:        name,
		DataMapping: "vesa-24",
		ReferenceHz: 24000000,
		PixelHz:     51200000,
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	// Test registering a profile
	err := registry.Register(testProfile("test1"))
	if err != nil {
		t.Fatalf("Failed to register profile: %v", err)
	}

	// Test registering duplicate profile
	err = registry.Register(testProfile("test1"))
	if err == nil {
		t.Fatal("Expected error when registering duplicate profile")
	}

	// Test registering profile with empty name
	err = registry.Register(testProfile(""))
	if !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("Expected ErrInvalidProfile for empty name, got %v", err)
	}

	// Test getting profile
	got, err := registry.Get("test1")
	if err != nil {
		t.Fatalf("Failed to get profile: %v", err)
	}
	if got.Name != "test1" {
		t.Errorf("Got wrong profile: expected test1, got %s", got.Name)
	}

	// Test getting non-existent profile
	_, err = registry.Get("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	// Test listing profiles
	if err := registry.Register(testProfile("test3")); err != nil {
		t.Fatal(err)
	}

	list := registry.List()
	if len(list) != 2 {
		t.Errorf("Expected 2 profiles, got %d", len(list))
	}
	if list[0] != "test1" || list[1] != "test3" {
		t.Errorf("List not sorted correctly: %v", list)
	}

	all := registry.All()
	if len(all) != 2 || all[1].Name != "test3" {
		t.Errorf("Unexpected All result: %v", all)
	}

	// Test Replace
	replaced := testProfile("test1")
	replaced.PixelHz = 65000000
	if err := registry.Replace(replaced); err != nil {
		t.Fatalf("Failed to replace profile: %v", err)
	}
	got, _ = registry.Get("test1")
	if got.PixelHz != 65000000 {
		t.Errorf("Replace did not overwrite, pixel clock %d", got.PixelHz)
	}

	// Test Clear
	registry.Clear()
	if list = registry.List(); len(list) != 0 {
		t.Errorf("Expected 0 profiles after Clear, got %d", len(list))
	}
}

func TestRegistryReset(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"old", "kept"} {
		if err := registry.Register(testProfile(name)); err != nil {
			t.Fatal(err)
		}
	}

	if err := registry.Reset([]Profile{testProfile("kept"), testProfile("new")}); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := registry.Get("old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected old profile to be gone, got %v", err)
	}
	if list := registry.List(); len(list) != 2 || list[0] != "kept" || list[1] != "new" {
		t.Errorf("Unexpected profiles after Reset: %v", list)
	}

	// an invalid set leaves the registry untouched
	if err := registry.Reset([]Profile{testProfile("a"), testProfile("")}); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("Expected ErrInvalidProfile, got %v", err)
	}
	if err := registry.Reset([]Profile{testProfile("a"), testProfile("a")}); err == nil {
		t.Fatal("Expected error for duplicate names")
	}
	if list := registry.List(); len(list) != 2 {
		t.Errorf("Failed Reset changed the registry: %v", list)
	}
}

func TestGlobalRegistryBuiltins(t *testing.T) {
	list := List()
	if len(list) != 2 || list[0] != FHDDual || list[1] != WSVGASingle {
		t.Fatalf("Unexpected global list: %v", list)
	}

	for _, p := range All() {
		if _, err := p.Plan(false); err != nil {
			t.Errorf("Built-in %s does not plan: %v", p.Name, err)
		}
	}
}
