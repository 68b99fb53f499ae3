package ring

import "testing"

func TestPushEvictsOldest(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 5; i++ {
		b.Push(i)
	}

	if b.Len() != 3 {
		t.Fatalf("len = %d, want 3", b.Len())
	}
	got := b.Items()
	want := []int{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("items[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestLastAndDropNewest(t *testing.T) {
	b := New[string](2)
	if _, ok := b.Last(); ok {
		t.Fatal("Last on empty buffer should report false")
	}

	b.Push("a")
	b.Push("b")
	if v, _ := b.Last(); v != "b" {
		t.Fatalf("Last = %q, want b", v)
	}

	v, ok := b.DropNewest()
	if !ok || v != "b" {
		t.Fatalf("DropNewest = %q, %v", v, ok)
	}
	if v, _ := b.Last(); v != "a" {
		t.Fatalf("Last after drop = %q, want a", v)
	}
}

func TestReplaceKeepsNewest(t *testing.T) {
	b := New[int](2)
	b.Replace([]int{1, 2, 3, 4})

	got := b.Items()
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("items = %v, want [3 4]", got)
	}
}
