package result

import (
	"context"
	"errors"
	"testing"
)

func TestMap_SuccessAppliesFunction(t *testing.T) {
	r := Map(Success(2), func(v int) int { return v * 3 })

	v, err := r.Unwrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 6 {
		t.Errorf("expected 6, got %d", v)
	}
}

func TestMap_IdentityLaw(t *testing.T) {
	r := Map(Success("x"), func(v string) string { return v })

	if v, err := r.Unwrap(); err != nil || v != "x" {
		t.Errorf("map(success(x), id) should equal success(x), got (%q, %v)", v, err)
	}
}

func TestMap_FailurePassesThrough(t *testing.T) {
	boom := errors.New("boom")
	called := false

	r := Map(Failure[int](boom), func(v int) int {
		called = true
		return v
	})

	if called {
		t.Error("map must never invoke f on a failure")
	}
	if !errors.Is(r.Err(), boom) {
		t.Errorf("expected original error, got %v", r.Err())
	}
}

func TestFlatMap_SuccessEqualsF(t *testing.T) {
	f := func(v int) Result[string] {
		if v < 0 {
			return Failure[string](errors.New("negative"))
		}
		return Success("ok")
	}

	got := FlatMap(Success(1), f)
	want := f(1)
	if got.Value() != want.Value() || got.Err() != want.Err() {
		t.Errorf("flatMap(success(x), f) should equal f(x)")
	}
}

func TestFlatMap_FailureSkipsF(t *testing.T) {
	boom := errors.New("boom")
	called := false

	r := FlatMap(Failure[int](boom), func(v int) Result[string] {
		called = true
		return Success("never")
	})

	if called {
		t.Error("flatMap must never invoke f on a failure")
	}
	if !errors.Is(r.Err(), boom) {
		t.Errorf("expected original error, got %v", r.Err())
	}
}

func TestFlatMapCtx_FailureSkipsF(t *testing.T) {
	boom := errors.New("boom")
	called := false

	r := FlatMapCtx(context.Background(), Failure[int](boom), func(ctx context.Context, v int) Result[int] {
		called = true
		return Success(v)
	})

	if called {
		t.Error("flatMapCtx must never invoke f on a failure")
	}
	if !errors.Is(r.Err(), boom) {
		t.Errorf("expected original error, got %v", r.Err())
	}
}

func TestSequence_AllSuccessPreservesOrder(t *testing.T) {
	r := Sequence([]Result[int]{Success(1), Success(2), Success(3)})

	values, err := r.Unwrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 3 || values[0] != 1 || values[1] != 2 || values[2] != 3 {
		t.Errorf("expected [1 2 3], got %v", values)
	}
}

func TestSequence_FirstFailureWins(t *testing.T) {
	errA := errors.New("A")
	errB := errors.New("B")

	r := Sequence([]Result[int]{Success(1), Failure[int](errA), Failure[int](errB)})

	if !errors.Is(r.Err(), errA) {
		t.Errorf("expected first failure A, got %v", r.Err())
	}
}

func TestSequence_Empty(t *testing.T) {
	r := Sequence([]Result[int]{})

	values, err := r.Unwrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("expected empty slice, got %v", values)
	}
}
