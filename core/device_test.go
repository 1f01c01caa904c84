package core

import (
	"errors"
	"testing"

	"github.com/signalsfoundry/wcd-geometry/model"
)

func threeMidTree(t *testing.T) *Device {
	t.Helper()
	return buildTree(t, chainCatalog(t,
		[]model.LayoutEntry{
			entry("B", "M", [3]float64{100, 0, 0}),
			entry("D", "M", [3]float64{-100, 0, 0}),
			entry("E", "M", [3]float64{0, 100, 0}),
		},
		entry("C", "L", [3]float64{0, 0, 10}),
	))
}

func TestPropertiesDesignAndTrue(t *testing.T) {
	root := threeMidTree(t)
	c := root.Children("mids")[0].Children("leaves")[0]

	design, err := c.Properties(model.VariantDesign)
	if err != nil {
		t.Fatalf("Properties: %v", err)
	}
	if design["size"] != 10 || design["gain"] != 1 {
		t.Fatalf("design properties = %v", design)
	}
	truth, err := c.Properties(model.VariantTrue)
	if err != nil {
		t.Fatalf("Properties: %v", err)
	}
	if truth["size"] != 10 {
		t.Fatalf("zero-scale property should equal its mean, got %v", truth["size"])
	}
	if truth["gain"] <= 0 {
		t.Fatalf("gamma property should be positive, got %v", truth["gain"])
	}

	design["size"] = 99
	if again, _ := c.Property(model.VariantDesign, "size"); again != 10 {
		t.Fatalf("Properties must return a copy")
	}
	if names := c.PropertyNames(); len(names) != 2 || names[0] != "gain" || names[1] != "size" {
		t.Fatalf("PropertyNames = %v", names)
	}
	if got := c.Describe("size"); got != "mm diameter" {
		t.Fatalf("Describe = %q", got)
	}
}

func TestPropertyErrors(t *testing.T) {
	root := threeMidTree(t)
	c := root.Children("mids")[0].Children("leaves")[0]

	if _, err := c.Properties(model.VariantSurvey); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("survey properties: got %v, want ErrUnknownVariant", err)
	}
	if _, err := c.Property(model.VariantTrue, "qe"); !errors.Is(err, ErrMissingProperty) {
		t.Fatalf("missing property: got %v, want ErrMissingProperty", err)
	}
}

func TestSetPropertyOverridesTrueOnly(t *testing.T) {
	root := threeMidTree(t)
	c := root.Children("mids")[0].Children("leaves")[0]

	c.SetProperty("gain", 1.7)
	if got, _ := c.Property(model.VariantTrue, "gain"); got != 1.7 {
		t.Fatalf("true gain = %v, want 1.7", got)
	}
	if got, _ := c.Property(model.VariantDesign, "gain"); got != 1 {
		t.Fatalf("design gain changed to %v", got)
	}

	c.SetEstimate("gain", 1.6, 0.05)
	if got, _ := c.Property(model.VariantEstimate, "gain"); got != 1.6 {
		t.Fatalf("estimate = %v", got)
	}
	if got, _ := c.Property(model.VariantEstimateSigma, "gain"); got != 0.05 {
		t.Fatalf("estimate sigma = %v", got)
	}
}

func TestSetPlacement(t *testing.T) {
	root := threeMidTree(t)
	b := root.Children("mids")[0]

	for _, v := range []model.Variant{model.VariantDesign, model.VariantTrue} {
		if err := b.SetPlacement(v, model.Placement{}); !errors.Is(err, ErrImmutableVariant) {
			t.Fatalf("SetPlacement(%s): got %v, want ErrImmutableVariant", v, err)
		}
	}
	bad := model.Placement{RotationAxes: "Xy", RotationAngles: model.Angles{0, 0}}
	if err := b.SetPlacement(model.VariantPhoto, bad); !errors.Is(err, ErrInvalidRotation) {
		t.Fatalf("mixed axes: got %v, want ErrInvalidRotation", err)
	}
	if err := b.SetPlacement(model.Variant(-1), model.Placement{}); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("bad variant: got %v, want ErrUnknownVariant", err)
	}

	p := model.Placement{Location: [3]float64{1, 2, 3}, RotationAxes: "z", RotationAngles: model.Angles{0.1}}
	if err := b.SetPlacement(model.VariantEstimate, p); err != nil {
		t.Fatalf("SetPlacement: %v", err)
	}
	p.RotationAngles[0] = 9
	got, ok := b.Placement(model.VariantEstimate)
	if !ok || got.RotationAngles[0] != 0.1 {
		t.Fatalf("stored placement should not alias the caller's, got %+v", got)
	}
	got.Location[0] = 42
	again, _ := b.Placement(model.VariantEstimate)
	if again.Location[0] != 1 {
		t.Fatalf("Placement must return a copy")
	}
	if _, ok := b.Placement(model.VariantPhoto); ok {
		t.Fatalf("photo placement should be absent")
	}
}

func TestCollectAndRenumber(t *testing.T) {
	root := threeMidTree(t)

	leaves := root.Collect("Leaf")
	if len(leaves) != 3 {
		t.Fatalf("collected %d leaves, want 3", len(leaves))
	}
	for i, want := range []string{"B", "D", "E"} {
		if leaves[i].Container().Name() != want {
			t.Fatalf("leaf %d lives in %s, want %s", i, leaves[i].Container().Name(), want)
		}
		if leaves[i].Name() != "C" {
			t.Fatalf("leaf names should start as given in the layout")
		}
	}
	if got := root.Collect("Top"); len(got) != 0 {
		t.Fatalf("Collect should not include the device itself")
	}

	Renumber(leaves)
	for i, leaf := range leaves {
		if want := string(rune('0' + i)); leaf.Name() != want {
			t.Fatalf("leaf %d renamed to %q, want %q", i, leaf.Name(), want)
		}
	}
}

func TestWalkPreOrder(t *testing.T) {
	root := threeMidTree(t)
	var order []string
	if err := root.Walk(func(d *Device) error {
		order = append(order, d.Name())
		return nil
	}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{"A", "B", "C", "D", "C", "E", "C"}
	if len(order) != len(want) {
		t.Fatalf("walk order %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("walk order %v, want %v", order, want)
		}
	}

	stop := errors.New("stop")
	visited := 0
	err := root.Walk(func(*Device) error {
		visited++
		if visited == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || visited != 2 {
		t.Fatalf("Walk should stop at the first error, visited %d, err %v", visited, err)
	}
}

func TestRootAndGroups(t *testing.T) {
	root := threeMidTree(t)
	c := root.Children("mids")[2].Children("leaves")[0]
	if c.Root() != root {
		t.Fatalf("Root() did not return the tree root")
	}
	groups := root.Groups()
	if len(groups) != 1 || groups[0].Name != "mids" || groups[0].Type != "Mid" {
		t.Fatalf("unexpected groups %+v", groups)
	}
	if root.Children("nope") != nil {
		t.Fatalf("unknown group should yield nil")
	}
	if c.String() != `Leaf "C"` {
		t.Fatalf("String() = %q", c.String())
	}
}
