package core

// CameraController turns pointer input into orbit camera motion.
// It holds only the drag/pan button state; the camera owns the pose.
type CameraController struct {
	RotateSpeed float32
	ZoomSpeed   float32

	isDragRotate bool
	isPan        bool
}

func NewCameraController(rotateSpeed, zoomSpeed float32) *CameraController {
	return &CameraController{
		RotateSpeed: rotateSpeed,
		ZoomSpeed:   zoomSpeed,
	}
}

// SetPrimaryButton records the left mouse button state. While panning the
// button keeps the pan alive instead of starting a rotation.
func (c *CameraController) SetPrimaryButton(pressed bool) {
	if c.isPan {
		c.isPan = pressed
	} else {
		c.isDragRotate = pressed
	}
}

// SetPanModifier records the pan modifier (left shift).
func (c *CameraController) SetPanModifier(pressed bool) {
	c.isPan = pressed
}

func (c *CameraController) Rotating() bool { return c.isDragRotate }
func (c *CameraController) Panning() bool  { return c.isPan }

// ApplyScroll zooms the camera; positive scroll moves the eye closer.
func (c *CameraController) ApplyScroll(cam *OrbitCamera, amount float32) bool {
	if amount == 0 {
		return false
	}
	cam.AddDistance(-amount * c.ZoomSpeed)
	return true
}

// ApplyMotion rotates or pans the camera by a pointer delta in pixels.
// Returns true if the camera changed.
func (c *CameraController) ApplyMotion(cam *OrbitCamera, dx, dy float64) bool {
	switch {
	case c.isDragRotate:
		cam.AddYaw(-float32(dx) * c.RotateSpeed)
		cam.AddPitch(float32(dy) * c.RotateSpeed)
		return true
	case c.isPan:
		cam.Pan(float32(dx)*c.RotateSpeed, float32(dy)*c.RotateSpeed)
		return true
	}
	return false
}
