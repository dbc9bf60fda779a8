package collision

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/collisionspace/packing"
	"go.viam.com/collisionspace/referenceframe"
	"go.viam.com/collisionspace/spatialmath"
)

// AttachedObject is an object rigidly held by a link of the robot.
type AttachedObject struct {
	Name string
	Link string
	// Pose is the pose of the object in the frame of Link.
	Pose     spatialmath.Pose
	Geometry spatialmath.Geometry

	group    *Group
	priority PriorityRange
}

// Spheres returns the spheres approximating the object in the frame of its link.
func (a *AttachedObject) Spheres() []Sphere {
	return a.group.Spheres()
}

// AttachObject attaches a geometry to link at pose, replacing any attached object. The geometry is approximated by
// spheres at the configured high and low res radii.
func (s *Space) AttachObject(name, link string, pose spatialmath.Pose, geometry spatialmath.Geometry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return NewUninitializedError()
	}
	if name == "" {
		return errors.New("attached object must have a name")
	}
	if geometry == nil {
		return errors.Errorf("attached object %q has no geometry", name)
	}
	if pose == nil {
		pose = spatialmath.NewZeroPose()
	}
	poses, err := linkPoses(s.kin, s.robotState)
	if err != nil {
		return err
	}
	if _, ok := poses[link]; !ok {
		return NewMissingLinkError(link)
	}

	inLink := geometry.Transform(pose)
	priority := fullPriorityRange
	spherePriority := 0
	if p := s.cfg.AttachedObject.Priority; p != nil {
		priority = PriorityRange{Min: *p, Max: *p}
		spherePriority = *p
	}
	var spheres []Sphere
	for _, tier := range []Tier{HighRes, LowRes} {
		radius := s.cfg.AttachedObject.HighResRadius
		if tier == LowRes {
			radius = s.cfg.AttachedObject.LowResRadius
		}
		packed, err := packing.PackIntoSpheres(inLink, radius)
		if err != nil {
			return errors.Wrapf(err, "failed to pack attached object %q", name)
		}
		for i, p := range packed {
			spheres = append(spheres, Sphere{
				Name:     fmt.Sprintf("%s_%s_%d", name, tier, i),
				Offset:   p.Center,
				Radius:   p.Radius,
				Priority: spherePriority,
				Tier:     tier,
			})
		}
	}
	group, err := NewSphereGroup(name, link, spheres, &priority)
	if err != nil {
		return err
	}
	s.attached = &AttachedObject{
		Name:     name,
		Link:     link,
		Pose:     pose,
		Geometry: geometry,
		group:    group,
		priority: priority,
	}
	s.markVoxelGroupsDirty()
	s.logger.Infow("attached object",
		"object", name,
		"link", link,
		"high_res_spheres", len(group.HighResSpheres()),
		"low_res_spheres", len(group.LowResSpheres()),
	)
	return nil
}

// AttachSphere attaches a sphere of the given radius centered at pose.
func (s *Space) AttachSphere(name, link string, pose spatialmath.Pose, radius float64) error {
	g, err := spatialmath.NewSphere(spatialmath.NewZeroPose(), radius, name)
	if err != nil {
		return err
	}
	return s.AttachObject(name, link, pose, g)
}

// AttachCylinder attaches a cylinder whose axis is the z axis of pose.
func (s *Space) AttachCylinder(name, link string, pose spatialmath.Pose, radius, length float64) error {
	g, err := spatialmath.NewCylinder(spatialmath.NewZeroPose(), radius, length, name)
	if err != nil {
		return err
	}
	return s.AttachObject(name, link, pose, g)
}

// AttachCube attaches a box with dimensions x, y and z centered at pose.
func (s *Space) AttachCube(name, link string, pose spatialmath.Pose, x, y, z float64) error {
	g, err := spatialmath.NewBox(spatialmath.NewZeroPose(), r3.Vector{X: x, Y: y, Z: z}, name)
	if err != nil {
		return err
	}
	return s.AttachObject(name, link, pose, g)
}

// AttachMesh attaches a closed triangle mesh whose vertices are expressed in the frame of pose.
func (s *Space) AttachMesh(name, link string, pose spatialmath.Pose, vertices []r3.Vector, triangles [][3]int) error {
	g, err := spatialmath.NewMeshFromVertices(spatialmath.NewZeroPose(), vertices, triangles, name)
	if err != nil {
		return err
	}
	return s.AttachObject(name, link, pose, g)
}

// RemoveAttachedObject detaches the attached object. It returns false when nothing was attached.
func (s *Space) RemoveAttachedObject() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached == nil {
		return false
	}
	s.logger.Infow("detached object", "object", s.attached.Name)
	s.attached = nil
	s.markVoxelGroupsDirty()
	return true
}

// IsObjectAttached reports whether an object is attached.
func (s *Space) IsObjectAttached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached != nil
}

// AttachedObject returns the attached object, or nil.
func (s *Space) AttachedObject() *AttachedObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// AttachedObjectSpheres returns the attached object's spheres placed in the world for a configuration.
func (s *Space) AttachedObjectSpheres(inputs []referenceframe.Input, lowRes bool) ([]PlacedSphere, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateInputs(inputs); err != nil {
		return nil, err
	}
	if s.attached == nil {
		return nil, errors.New("no object is attached")
	}
	poses, err := linkPoses(s.kin, inputs)
	if err != nil {
		return nil, err
	}
	pose, ok := poses[s.attached.Link]
	if !ok {
		return nil, NewMissingLinkError(s.attached.Link)
	}
	tier := HighRes
	if lowRes {
		tier = LowRes
	}
	return placeSpheres(s.attached.Name, s.attached.group.tierSpheres(tier), pose), nil
}
