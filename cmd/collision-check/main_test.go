package main

import (
	"bytes"
	"testing"

	"go.viam.com/test"
)

const (
	modelFile  = "../../referenceframe/testdata/planar_arm.json"
	configFile = "../../collision/testdata/planar_arm_collision.json"
	sceneFile  = "testdata/scene.json"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"collision-check"}, args...))
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	out, err := run(t, "check", "--model", modelFile, "--config", configFile, "--scene", sceneFile, "--joints", "0,0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "valid: true")

	// pointing the arm along y drives it through the post
	out, err = run(t, "check", "--model", modelFile, "--config", configFile, "--scene", sceneFile,
		"--joints", "1.5707963,0", "--diagnostics")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "valid: false")
	test.That(t, out, test.ShouldContainSubstring, "with world (world)")

	_, err = run(t, "check", "--model", modelFile, "--config", configFile, "--joints", "0")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "configuration size mismatch")

	_, err = run(t, "check", "--model", modelFile, "--config", configFile, "--joints", "0,0", "--resolution", "ultra")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = run(t, "check", "--config", configFile, "--joints", "0,0")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDescribeCommand(t *testing.T) {
	out, err := run(t, "describe", "--config", configFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "forearm")
}

func TestPathCommand(t *testing.T) {
	out, err := run(t, "path", "--model", modelFile, "--config", configFile, "--scene", sceneFile,
		"--start", "0,0", "--end", "0.3,0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "valid: true")
	test.That(t, out, test.ShouldContainSubstring, "joint_distance: 0.3000")

	out, err = run(t, "path", "--model", modelFile, "--config", configFile, "--scene", sceneFile,
		"--start", "0,0", "--end", "1.5707963,0", "--return-path")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "valid: false")
	test.That(t, out, test.ShouldContainSubstring, "sample 0: [0 0]")
}

func TestReadScene(t *testing.T) {
	scene, err := readScene(sceneFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scene.Obstacles, test.ShouldHaveLength, 1)
	test.That(t, scene.Attached.Link, test.ShouldEqual, "link2")
	grid, err := scene.newGrid()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, grid.Resolution(), test.ShouldEqual, 0.05)

	empty, err := readScene("")
	test.That(t, err, test.ShouldBeNil)
	grid, err = empty.newGrid()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, grid.Resolution(), test.ShouldEqual, defaultGrid.Resolution)

	_, err = readScene("testdata/missing.json")
	test.That(t, err, test.ShouldNotBeNil)

	bad := &sceneConfig{Obstacles: []obstacleConfig{{Name: "nothing"}}, Attached: &attachedConfig{}}
	err = bad.Validate()
	test.That(t, err.Error(), test.ShouldContainSubstring, "obstacle 0 has no geometries")
	test.That(t, err.Error(), test.ShouldContainSubstring, "needs a name and a link")
}
