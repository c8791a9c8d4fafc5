package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/morezero/intents/pkg/intent"
)

func TestStore_HandlersFor(t *testing.T) {
	s := NewStore(DefaultCatalog())
	ctx := context.Background()

	view, err := s.HandlersFor(ctx, intent.VerbView)
	if err != nil {
		t.Fatalf("catalog:store_test - unexpected error: %v", err)
	}
	if len(view) != 2 || view[0].Package != "com.android.browser" || view[1].Package != "com.android.mms" {
		t.Errorf("catalog:store_test - VIEW handlers = %+v", view)
	}

	none, _ := s.HandlersFor(ctx, intent.VerbCaptureImage)
	if len(none) != 0 {
		t.Errorf("catalog:store_test - CAPTURE_IMAGE handlers = %+v, want none", none)
	}
}

func TestStore_UpsertAndDelete(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	if err := s.UpsertHandler(ctx, Handler{Package: "com.example.cam", Verbs: []intent.Verb{"capture_image"}}); err != nil {
		t.Fatalf("catalog:store_test - UpsertHandler: %v", err)
	}
	got, _ := s.HandlersFor(ctx, intent.VerbCaptureImage)
	if len(got) != 1 {
		t.Fatalf("catalog:store_test - expected normalized verb to match, got %+v", got)
	}

	if err := s.UpsertHandler(ctx, Handler{Package: ""}); !intent.IsCode(err, intent.CodeInvalidArgument) {
		t.Errorf("catalog:store_test - expected INVALID_ARGUMENT, got %v", err)
	}

	removed, err := s.DeleteHandler(ctx, "com.example.cam")
	if err != nil || !removed {
		t.Errorf("catalog:store_test - DeleteHandler = %v, %v", removed, err)
	}
	removed, _ = s.DeleteHandler(ctx, "com.example.cam")
	if removed {
		t.Error("catalog:store_test - second DeleteHandler should report false")
	}
}

func TestStore_Permissions(t *testing.T) {
	s := NewStore(&File{Permissions: []string{"A"}})
	ctx := context.Background()

	if ok, _ := s.Granted(ctx, "A"); !ok {
		t.Error("catalog:store_test - A should be granted from the file")
	}
	s.GrantPermission(ctx, intent.PermissionCallPhone)
	if ok, _ := s.Granted(ctx, intent.PermissionCallPhone); !ok {
		t.Error("catalog:store_test - CALL_PHONE should be granted")
	}
	s.RevokePermission(ctx, intent.PermissionCallPhone)
	if ok, _ := s.Granted(ctx, intent.PermissionCallPhone); ok {
		t.Error("catalog:store_test - CALL_PHONE should be revoked")
	}
}

func TestStore_Replace(t *testing.T) {
	s := NewStore(DefaultCatalog())
	s.Replace(&File{Name: "empty"})

	all, _ := s.ListHandlers(context.Background())
	if len(all) != 0 || s.Name() != "empty" {
		t.Errorf("catalog:store_test - after replace: name=%q handlers=%d", s.Name(), len(all))
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore(DefaultCatalog())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.UpsertHandler(ctx, Handler{Package: fmt.Sprintf("pkg.%d", i), Verbs: []intent.Verb{intent.VerbView}})
		}(i)
		go func() {
			defer wg.Done()
			s.HandlersFor(ctx, intent.VerbView)
			s.Replace(DefaultCatalog())
		}()
	}
	wg.Wait()
}
