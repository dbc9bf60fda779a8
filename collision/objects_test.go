package collision

import (
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/collisionspace/logging"
	"go.viam.com/collisionspace/spatialmath"
)

func crate(t *testing.T, center r3.Vector) spatialmath.Geometry {
	t.Helper()
	box, err := spatialmath.NewBox(spatialmath.NewPoseFromPoint(center), r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}, "crate")
	test.That(t, err, test.ShouldBeNil)
	return box
}

func TestCollisionObjects(t *testing.T) {
	space := newSpace(t, newWorldGrid(t), sliderConfig(armGroup()))

	name, err := space.AddCollisionObject(&CollisionObject{
		Name:       "crate",
		Geometries: []spatialmath.Geometry{crate(t, r3.Vector{X: 0.5})},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, name, test.ShouldEqual, "crate")
	test.That(t, space.CollisionObjectNames(), test.ShouldResemble, []string{"crate"})

	voxels, err := space.CollisionObjectVoxels("crate")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, voxels, test.ShouldNotBeEmpty)
	for _, v := range voxels {
		test.That(t, v.X, test.ShouldBeGreaterThan, 0.4)
		test.That(t, v.X, test.ShouldBeLessThan, 0.6)
	}

	valid, _, err := space.IsStateValid(inputs(0.5))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, valid, test.ShouldBeFalse)
	valid, _, err = space.IsStateValid(inputs(0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, valid, test.ShouldBeTrue)

	// replacing an object moves its voxels
	_, err = space.AddCollisionObject(&CollisionObject{
		Name:       "crate",
		Geometries: []spatialmath.Geometry{crate(t, r3.Vector{X: 0})},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, space.CollisionObjectNames(), test.ShouldHaveLength, 1)
	valid, _, err = space.IsStateValid(inputs(0.5))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, valid, test.ShouldBeTrue)
	valid, _, err = space.IsStateValid(inputs(0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, valid, test.ShouldBeFalse)

	test.That(t, space.RemoveCollisionObject("crate"), test.ShouldBeNil)
	test.That(t, space.RemoveCollisionObject("crate"), test.ShouldBeError, NewObjectNotFoundError("crate"))
	valid, _, err = space.IsStateValid(inputs(0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, valid, test.ShouldBeTrue)

	_, err = space.CollisionObjectVoxels("crate")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = space.AddCollisionObject(&CollisionObject{Name: "empty"})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = space.AddCollisionObject(nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestProcessCollisionObject(t *testing.T) {
	grid := newWorldGrid(t)
	space := New(grid, logging.NewTestLogger(t))

	// objects may be added before the planning group is configured
	test.That(t, space.ProcessCollisionObject(AddObject, &CollisionObject{
		Name:       "left",
		Geometries: []spatialmath.Geometry{crate(t, r3.Vector{Y: -0.5})},
	}), test.ShouldBeNil)
	name, err := space.AddCollisionObject(&CollisionObject{
		Geometries: []spatialmath.Geometry{crate(t, r3.Vector{Y: 0.5})},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, name, test.ShouldStartWith, "object_")
	test.That(t, space.CollisionObjectNames(), test.ShouldHaveLength, 2)
	obj, err := space.CollisionObject(name)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, obj.Name, test.ShouldEqual, name)
	test.That(t, grid.OccupiedCells(), test.ShouldNotBeEmpty)

	test.That(t, space.ProcessCollisionObject(RemoveObject, &CollisionObject{Name: "left"}), test.ShouldBeNil)
	test.That(t, space.CollisionObjectNames(), test.ShouldResemble, []string{name})
	test.That(t, space.ProcessCollisionObject(RemoveObject, nil), test.ShouldNotBeNil)

	test.That(t, space.ProcessCollisionObject(RemoveAllObjects, nil), test.ShouldBeNil)
	test.That(t, space.CollisionObjectNames(), test.ShouldBeEmpty)
	test.That(t, grid.OccupiedCells(), test.ShouldBeEmpty)

	test.That(t, space.ProcessCollisionObject(ObjectOperation(7), nil), test.ShouldNotBeNil)
}

func TestVoxelGroups(t *testing.T) {
	paddle := GroupConfig{
		Name: "paddle",
		Link: "slider",
		Kind: "voxels",
		Geometry: &spatialmath.GeometryConfig{
			Type:              spatialmath.BoxType,
			X:                 0.1,
			Y:                 0.1,
			Z:                 0.1,
			TranslationOffset: r3.Vector{X: 0.5},
		},
	}
	grid := newWorldGrid(t)
	space := newSpace(t, grid, sliderConfig(armGroup(), paddle))

	test.That(t, space.UpdateVoxelGroups(), test.ShouldBeNil)
	group, err := space.Group("paddle")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, group.Kind, test.ShouldEqual, VoxelGroup)
	test.That(t, group.Voxels(), test.ShouldNotBeEmpty)
	count := len(group.Voxels())
	for _, v := range group.Voxels() {
		test.That(t, v.X, test.ShouldBeGreaterThan, 0.4)
		test.That(t, v.X, test.ShouldBeLessThan, 0.6)
	}
	test.That(t, grid.OccupiedCells(), test.ShouldHaveLength, count)

	// voxel groups follow the robot state, not the checked configuration
	test.That(t, space.SetRobotState(inputs(0.3)), test.ShouldBeNil)
	test.That(t, space.RobotState(), test.ShouldResemble, inputs(0.3))
	valid, _, err := space.IsStateValid(inputs(0.8))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, valid, test.ShouldBeFalse)
	for _, v := range group.Voxels() {
		test.That(t, v.X, test.ShouldBeGreaterThan, 0.7)
		test.That(t, v.X, test.ShouldBeLessThan, 0.9)
	}
	test.That(t, grid.OccupiedCells(), test.ShouldHaveLength, count)

	valid, _, err = space.IsStateValid(inputs(0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, valid, test.ShouldBeTrue)

	test.That(t, space.UpdateVoxelGroup("paddle"), test.ShouldBeNil)
	test.That(t, space.UpdateVoxelGroup("arm"), test.ShouldNotBeNil)
	test.That(t, space.UpdateVoxelGroup("missing"), test.ShouldBeError, NewUnknownGroupError("missing"))
	test.That(t, space.SetRobotState(inputs(9)), test.ShouldNotBeNil)

	// the check set only holds sphere groups
	test.That(t, space.SetGroupsForCheck([]string{"paddle"}), test.ShouldNotBeNil)
}

func TestVoxelGroupFromLinkGeometry(t *testing.T) {
	model := sliderModel(t)
	model.SetLinkGeometry("slider", crate(t, r3.Vector{X: 0.5}))
	cfg := sliderConfig(armGroup(), GroupConfig{Name: "body", Link: "slider", Kind: "voxels"})
	space := New(newWorldGrid(t), logging.NewTestLogger(t))
	test.That(t, space.Init(cfg, model), test.ShouldBeNil)
	test.That(t, space.UpdateVoxelGroups(), test.ShouldBeNil)
	group, err := space.Group("body")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, group.Voxels(), test.ShouldNotBeEmpty)

	cfg = sliderConfig(armGroup(), GroupConfig{Name: "body", Link: "slider", Kind: "voxels"})
	err = New(newWorldGrid(t), logging.NewTestLogger(t)).Init(cfg, sliderModel(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFailedInitKeepsVoxelGroups(t *testing.T) {
	paddle := GroupConfig{
		Name:     "paddle",
		Link:     "slider",
		Kind:     "voxels",
		Geometry: &spatialmath.GeometryConfig{Type: spatialmath.BoxType, X: 0.1, Y: 0.1, Z: 0.1},
	}
	grid := newStubGrid(0.05, 100)
	space := newSpace(t, grid, sliderConfig(armGroup(), paddle))
	test.That(t, space.UpdateVoxelGroups(), test.ShouldBeNil)
	count := grid.inserted
	test.That(t, count, test.ShouldBeGreaterThan, 0)

	// voxelizing at a zero resolution fails after the new groups are built
	grid.res = 0
	test.That(t, space.Init(sliderConfig(armGroup(), paddle), sliderModel(t)), test.ShouldNotBeNil)
	test.That(t, grid.inserted, test.ShouldEqual, count)

	grid.res = 0.05
	test.That(t, space.UpdateVoxelGroups(), test.ShouldBeNil)
	test.That(t, grid.inserted, test.ShouldEqual, count)

	// a successful Init takes the old voxels out exactly once
	test.That(t, space.Init(sliderConfig(armGroup()), sliderModel(t)), test.ShouldBeNil)
	test.That(t, grid.inserted, test.ShouldEqual, 0)
}

func TestSetJointPosition(t *testing.T) {
	paddle := GroupConfig{
		Name: "paddle",
		Link: "slider",
		Kind: "voxels",
		Geometry: &spatialmath.GeometryConfig{
			Type:              spatialmath.BoxType,
			X:                 0.1,
			Y:                 0.1,
			Z:                 0.1,
			TranslationOffset: r3.Vector{X: 0.5},
		},
	}
	space := newSpace(t, newWorldGrid(t), sliderConfig(armGroup(), paddle))

	test.That(t, space.SetJointPosition("slider", 0.3), test.ShouldBeNil)
	test.That(t, space.RobotState(), test.ShouldResemble, inputs(0.3))
	test.That(t, space.UpdateVoxelGroups(), test.ShouldBeNil)
	group, err := space.Group("paddle")
	test.That(t, err, test.ShouldBeNil)
	for _, v := range group.Voxels() {
		test.That(t, v.X, test.ShouldBeGreaterThan, 0.7)
		test.That(t, v.X, test.ShouldBeLessThan, 0.9)
	}

	err = space.SetJointPosition("slider", 3)
	test.That(t, errors.Is(err, ErrJointLimit), test.ShouldBeTrue)
	test.That(t, space.SetJointPosition("elbow", 0), test.ShouldNotBeNil)
	test.That(t, space.RobotState(), test.ShouldResemble, inputs(0.3))

	err = New(newWorldGrid(t), logging.NewTestLogger(t)).SetJointPosition("slider", 0)
	test.That(t, errors.Is(err, ErrUninitialized), test.ShouldBeTrue)
}
