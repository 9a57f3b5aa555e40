package vkpresent

import "testing"

func TestRequestRingPushPop(t *testing.T) {
	r := newRequestRing()
	if !r.push(presentRequest{userIndex: 1}) {
		t.Fatal("push should succeed on an empty ring")
	}
	req, ok := r.pop()
	if !ok {
		t.Fatal("pop should return the pushed request")
	}
	if req.userIndex != 1 {
		t.Errorf("userIndex = %d, want 1", req.userIndex)
	}
	if _, ok := r.pop(); ok {
		t.Error("pop on an empty ring should return false")
	}
}

func TestRequestRingFull(t *testing.T) {
	r := newRequestRing()
	for i := 0; i < MaxBuffers; i++ {
		if !r.push(presentRequest{userIndex: uint32(i)}) {
			t.Fatalf("push %d should succeed", i)
		}
	}
	if r.push(presentRequest{}) {
		t.Error("push on a full ring should fail")
	}
	if r.len() != MaxBuffers {
		t.Errorf("len() = %d, want %d", r.len(), MaxBuffers)
	}
}

func TestRequestRingFIFOOrder(t *testing.T) {
	r := newRequestRing()
	for i := 0; i < 5; i++ {
		r.push(presentRequest{userIndex: uint32(i)})
	}
	for i := 0; i < 5; i++ {
		req, ok := r.pop()
		if !ok || req.userIndex != uint32(i) {
			t.Fatalf("pop %d: got %+v, ok=%v", i, req, ok)
		}
	}
}

func TestRequestRepeatCount(t *testing.T) {
	if (presentRequest{swapInterval: 0}).repeatCount() != 1 {
		t.Error("swapInterval=0 should repeat once")
	}
	if (presentRequest{swapInterval: 3}).repeatCount() != 3 {
		t.Error("swapInterval=3 should repeat three times")
	}
}

func TestChangedSwapchainClass(t *testing.T) {
	a := presentRequest{colorSpace: ColorSpaceRGBFullG22NoneP709, format: FormatB8G8R8A8UNorm, swapInterval: 1}
	b := a
	if changedSwapchainClass(a, b) {
		t.Error("identical requests should not require recreation")
	}
	b.swapInterval = 0
	if !changedSwapchainClass(a, b) {
		t.Error("vsync-on/off transition should force recreation")
	}
}
