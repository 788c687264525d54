package navtest

import "testing"

func TestHistoryStack(t *testing.T) {
	env := NewFakeEnvironment()

	env.Push("#!/one")
	env.Push("#!/two")
	if env.Fragment() != "#!/two" {
		t.Fatalf("Fragment = %q", env.Fragment())
	}

	env.Back()
	if env.Fragment() != "#!/one" {
		t.Errorf("after Back, Fragment = %q, want #!/one", env.Fragment())
	}

	// Pushing from the middle drops the forward entries.
	env.Push("#!/three")
	env.Forward() // clamped, nothing ahead
	if env.Fragment() != "#!/three" {
		t.Errorf("Fragment = %q, want #!/three", env.Fragment())
	}
	if env.HistoryLen() != 3 {
		t.Errorf("HistoryLen = %d, want 3", env.HistoryLen())
	}
}

func TestGoClamps(t *testing.T) {
	env := NewFakeEnvironment()
	env.Push("#!/a")

	env.Go(-10)
	if env.Fragment() != "" {
		t.Errorf("Fragment = %q, want clamped to first entry", env.Fragment())
	}
	env.Go(10)
	if env.Fragment() != "#!/a" {
		t.Errorf("Fragment = %q, want clamped to last entry", env.Fragment())
	}
}

func TestNotifications(t *testing.T) {
	env := NewFakeEnvironment()

	frags := 0
	remove := env.OnFragmentChange(func() { frags++ })
	env.SetHash("#!/x")
	if frags != 1 {
		t.Errorf("fragment notifications = %d, want 1", frags)
	}
	remove()
	env.SetHash("#!/y")
	if frags != 1 {
		t.Error("removed observer still notified")
	}

	scrolls := 0
	env.OnScroll(func() { scrolls++ })
	env.Scroll(0, 10)
	if scrolls != 1 {
		t.Errorf("scroll notifications = %d, want 1", scrolls)
	}
}

func TestFramesQueueUntilRun(t *testing.T) {
	env := NewFakeEnvironment()

	ran := false
	env.RequestFrame(func() { ran = true })
	if ran {
		t.Fatal("frame ran synchronously")
	}
	env.RunFrames()
	if !ran {
		t.Fatal("frame did not run")
	}

	// A frame queued by a frame waits for the next RunFrames.
	again := false
	env.RequestFrame(func() {
		env.RequestFrame(func() { again = true })
	})
	env.RunFrames()
	if again {
		t.Error("nested frame ran in the same pass")
	}
	env.RunFrames()
	if !again {
		t.Error("nested frame never ran")
	}
}
