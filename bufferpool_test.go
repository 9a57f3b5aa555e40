package vkpresent

import "testing"

func TestReallocateUserBuffers(t *testing.T) {
	gpu := newFakeBackend(800, 600)
	pool, err := reallocateUserBuffers(gpu, 3, 800, 600, FormatB8G8R8A8UNorm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.count() != 3 {
		t.Errorf("count() = %d, want 3", pool.count())
	}
	if !pool.allPublicRefsZero() {
		t.Error("freshly allocated pool should have zero public refs")
	}
}

func TestBufferPoolRefcounting(t *testing.T) {
	gpu := newFakeBackend(800, 600)
	pool, err := reallocateUserBuffers(gpu, 2, 800, 600, FormatB8G8R8A8UNorm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buf, err := pool.at(0)
	if err != nil {
		t.Fatalf("at(0): %v", err)
	}
	buf.addPublicRef()
	if pool.allPublicRefsZero() {
		t.Error("expected a nonzero public ref after addPublicRef")
	}
	buf.releasePublicRef()
	if !pool.allPublicRefsZero() {
		t.Error("expected zero public refs after release")
	}
}

func TestBufferPoolOutOfRange(t *testing.T) {
	gpu := newFakeBackend(800, 600)
	pool, _ := reallocateUserBuffers(gpu, 2, 800, 600, FormatB8G8R8A8UNorm)
	if _, err := pool.at(5); err == nil {
		t.Error("expected an error for an out-of-range buffer index")
	}
}
