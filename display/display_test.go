package display_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vijayrajbudala/GIS-Application/arcgis"
	"github.com/vijayrajbudala/GIS-Application/display"
)

func graphic(id int64, status string, x, y float64) display.Graphic {
	return display.Graphic{
		Geometry:   display.Point{X: x, Y: y},
		Attributes: display.Attributes{ObjectID: id, Status: status},
	}
}

func TestLayerAssignsIDs(t *testing.T) {
	ctx := context.Background()
	l := display.NewLayer()

	if err := l.RenderExisting(ctx, []display.Graphic{graphic(1, "Open", 1, 2), graphic(4, "Closed", 3, 4)}); err != nil {
		t.Fatal(err)
	}

	// The tentative id is ignored; the layer continues after its highest id.
	id, ok, err := l.RenderNew(ctx, graphic(2, "Open", 5, 6))
	if err != nil {
		t.Fatal(err)
	}
	if !ok || id != 5 {
		t.Fatalf("expected assigned id 5, got %d (ok=%v)", id, ok)
	}

	got := l.Graphics()
	if len(got) != 3 {
		t.Fatalf("expected 3 graphics, got %d", len(got))
	}
	if got[2].Attributes.ObjectID != 5 || got[2].Geometry.X != 5 {
		t.Fatalf("unexpected last graphic %+v", got[2])
	}
}

func TestLayerRenderExistingReplaces(t *testing.T) {
	ctx := context.Background()
	l := display.NewLayer()
	gs := []display.Graphic{graphic(1, "Open", 1, 2)}
	if err := l.RenderExisting(ctx, gs); err != nil {
		t.Fatal(err)
	}
	if err := l.RenderExisting(ctx, gs); err != nil {
		t.Fatal(err)
	}
	if n := len(l.Graphics()); n != 1 {
		t.Fatalf("expected reload to replace, got %d graphics", n)
	}

	if err := l.RenderExisting(ctx, []display.Graphic{graphic(0, "Open", 1, 2)}); err == nil {
		t.Fatal("expected error for graphic without object id")
	}
}

func TestLayerRetract(t *testing.T) {
	ctx := context.Background()
	l := display.NewLayer()
	id, _, err := l.RenderNew(ctx, graphic(0, "Open", 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Retract(ctx, id); err != nil {
		t.Fatal(err)
	}
	if n := len(l.Graphics()); n != 0 {
		t.Fatalf("expected empty layer, got %d", n)
	}
	if err := l.Retract(ctx, id); err == nil {
		t.Fatal("expected error retracting twice")
	}
}

func TestLayerCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := display.NewLayer().RenderNew(ctx, graphic(0, "Open", 1, 1)); err == nil {
		t.Fatal("expected context error")
	}
}

func TestFeatureService(t *testing.T) {
	var adds []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/query"):
			w.Write([]byte(`{"objectIds":[1]}`))
		case strings.HasSuffix(r.URL.Path, "/applyEdits"):
			r.ParseForm()
			if d := r.PostForm.Get("deletes"); d != "" {
				w.Write([]byte(`{"deleteResults":[{"objectId":` + d + `,"success":true}]}`))
				return
			}
			adds = append(adds, r.PostForm.Get("adds"))
			if strings.Contains(r.PostForm.Get("adds"), `"status":"NoID"`) {
				w.Write([]byte(`{"addResults":[{"success":true}]}`))
				return
			}
			if strings.Contains(r.PostForm.Get("adds"), `"status":"Bad"`) {
				w.Write([]byte(`{"addResults":[{"success":false,"error":{"code":1000,"message":"rejected"}}]}`))
				return
			}
			w.Write([]byte(`{"addResults":[{"objectId":10,"success":true}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	ctx := context.Background()
	s := display.NewFeatureService(arcgis.NewClient(5*time.Second), ts.URL+"/FeatureServer/0")

	if err := s.RenderExisting(ctx, []display.Graphic{graphic(1, "Open", 1, 2), graphic(2, "Open", 3, 4)}); err != nil {
		t.Fatal(err)
	}
	if len(adds) != 1 || strings.Contains(adds[0], `"OBJECTID":1,`) || !strings.Contains(adds[0], `"OBJECTID":2`) {
		t.Fatalf("expected only object id 2 to be re-added, got %v", adds)
	}

	id, ok, err := s.RenderNew(ctx, graphic(3, "Open", 5, 6))
	if err != nil || !ok || id != 10 {
		t.Fatalf("expected id 10, got %d ok=%v err=%v", id, ok, err)
	}

	if _, ok, err := s.RenderNew(ctx, graphic(3, "NoID", 5, 6)); err != nil || ok {
		t.Fatalf("expected accepted without id, got ok=%v err=%v", ok, err)
	}

	if _, _, err := s.RenderNew(ctx, graphic(3, "Bad", 5, 6)); err == nil {
		t.Fatal("expected rejection error")
	}

	if err := s.Retract(ctx, 10); err != nil {
		t.Fatal(err)
	}
}
