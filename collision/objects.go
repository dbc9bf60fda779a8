package collision

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/collisionspace/packing"
	"go.viam.com/collisionspace/spatialmath"
)

// CollisionObject is a named set of world frame geometries that is voxelized into the grid.
type CollisionObject struct {
	Name       string
	Geometries []spatialmath.Geometry
}

// ObjectOperation is an operation on the set of collision objects.
type ObjectOperation int

const (
	// AddObject adds an object, replacing one of the same name.
	AddObject ObjectOperation = iota
	// RemoveObject removes an object by name.
	RemoveObject
	// RemoveAllObjects removes every object.
	RemoveAllObjects
)

type trackedObject struct {
	object *CollisionObject
	voxels []r3.Vector
}

// ProcessCollisionObject applies op to the set of collision objects.
func (s *Space) ProcessCollisionObject(op ObjectOperation, obj *CollisionObject) error {
	switch op {
	case AddObject:
		_, err := s.AddCollisionObject(obj)
		return err
	case RemoveObject:
		if obj == nil {
			return errors.New("remove requires an object")
		}
		return s.RemoveCollisionObject(obj.Name)
	case RemoveAllObjects:
		s.RemoveAllCollisionObjects()
		return nil
	default:
		return errors.Errorf("unknown collision object operation %d", op)
	}
}

// AddCollisionObject voxelizes obj into the grid and returns its name. Objects without a name are given one. An
// object with the name of a known object replaces it.
func (s *Space) AddCollisionObject(obj *CollisionObject) (string, error) {
	if obj == nil {
		return "", errors.New("cannot add a nil collision object")
	}
	if len(obj.Geometries) == 0 {
		return "", errors.Errorf("collision object %q has no geometries", obj.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name := obj.Name
	if name == "" {
		name = "object_" + uuid.NewString()
	}
	res := s.grid.Resolution()
	origin := s.grid.Origin()
	var voxels []r3.Vector
	for _, g := range obj.Geometries {
		v, err := packing.Voxelize(g, res, origin)
		if err != nil {
			return "", errors.Wrapf(err, "failed to voxelize collision object %q", name)
		}
		voxels = append(voxels, v...)
	}
	voxels = lo.UniqBy(voxels, func(v r3.Vector) [3]int64 {
		return [3]int64{
			int64(math.Floor((v.X - origin.X) / res)),
			int64(math.Floor((v.Y - origin.Y) / res)),
			int64(math.Floor((v.Z - origin.Z) / res)),
		}
	})

	if old, ok := s.objects[name]; ok {
		s.grid.RemoveVoxels(old.voxels)
	}
	s.grid.InsertVoxels(voxels)
	s.objects[name] = &trackedObject{
		object: &CollisionObject{Name: name, Geometries: obj.Geometries},
		voxels: voxels,
	}
	s.markVoxelGroupsDirty()
	s.logger.Debugw("added collision object", "object", name, "voxels", len(voxels))
	return name, nil
}

// RemoveCollisionObject removes the voxels of the named object from the grid.
func (s *Space) RemoveCollisionObject(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[name]
	if !ok {
		return NewObjectNotFoundError(name)
	}
	s.grid.RemoveVoxels(obj.voxels)
	delete(s.objects, name)
	s.markVoxelGroupsDirty()
	s.logger.Debugw("removed collision object", "object", name)
	return nil
}

// RemoveAllCollisionObjects removes every collision object from the grid.
func (s *Space) RemoveAllCollisionObjects() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, obj := range s.objects {
		s.grid.RemoveVoxels(obj.voxels)
	}
	s.objects = map[string]*trackedObject{}
	s.markVoxelGroupsDirty()
}

// CollisionObjectNames returns the names of the known collision objects, sorted.
func (s *Space) CollisionObjectNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := lo.Keys(s.objects)
	sort.Strings(names)
	return names
}

// CollisionObject returns the named collision object.
func (s *Space) CollisionObject(name string) (*CollisionObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, NewObjectNotFoundError(name)
	}
	return obj.object, nil
}

// CollisionObjectVoxels returns the voxel centers the named object occupies.
func (s *Space) CollisionObjectVoxels(name string) ([]r3.Vector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, NewObjectNotFoundError(name)
	}
	return append([]r3.Vector(nil), obj.voxels...), nil
}
