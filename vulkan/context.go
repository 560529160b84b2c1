package vulkan

import (
	"errors"
	"fmt"
	"log"

	"github.com/celer/vkquad"
)

// Context bundles everything needed to hand a device, a queue and a command
// pool to package vkquad.
type Context struct {
	Instance    *Instance
	Device      *Device
	QueueFamily *QueueFamily
	Queue       *Queue
	CommandPool vkquad.CommandPoolHandle
}

type OpenOptions struct {
	// Debug enables the validation layer and logs what it reports
	Debug bool
	// Verbose logs device selection and every memory allocation
	Verbose bool
	// DeviceName selects a physical device by name, the first one with a
	// graphics queue is used otherwise.
	DeviceName string
}

// Open initializes Vulkan without a window and creates a logical device on
// the first physical device with a graphics queue family.
func Open(app *App, options OpenOptions) (*Context, error) {
	if err := InitializeHeadless(); err != nil {
		return nil, fmt.Errorf("unable to initialize vulkan: %w", err)
	}

	if options.Debug {
		if err := app.EnableDebugging(); err != nil {
			log.Printf("debugging unavailable: %v", err)
			options.Debug = false
		}
	}

	instance, err := app.CreateInstance()
	if err != nil {
		return nil, fmt.Errorf("unable to create instance: %w", err)
	}
	ctx := &Context{Instance: instance}

	if options.Debug {
		if err := instance.UseDefaultDebugCallback(); err != nil {
			log.Printf("unable to install debug callback: %v", err)
		}
	}

	pd, qf, err := selectPhysicalDevice(instance, options.DeviceName)
	if err != nil {
		ctx.Close()
		return nil, err
	}
	if options.Verbose {
		log.Printf("using %s, memory heaps %s", pd, pd.HeapSizes())
	}

	deviceOptions := &CreateDeviceOptions{}
	if options.Debug {
		deviceOptions.EnabledLayers = app.EnabledLayers
	}
	device, err := pd.CreateLogicalDevice(QueueFamilySlice{qf}, deviceOptions)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("unable to create logical device: %w", err)
	}
	device.Verbose = options.Verbose
	ctx.Device = device
	ctx.QueueFamily = qf
	ctx.Queue = device.GetQueue(qf)

	ctx.CommandPool, err = device.CreateCommandPool(qf)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("unable to create command pool: %w", err)
	}
	return ctx, nil
}

func selectPhysicalDevice(instance *Instance, name string) (*PhysicalDevice, *QueueFamily, error) {
	devices, err := instance.PhysicalDevices()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to enumerate physical devices: %w", err)
	}
	for _, pd := range devices {
		if name != "" && pd.DeviceName != name {
			continue
		}
		qfs, err := pd.QueueFamilies()
		if err != nil {
			return nil, nil, err
		}
		if graphics := qfs.FilterGraphics(); len(graphics) > 0 {
			return pd, graphics[0], nil
		}
	}
	if name != "" {
		return nil, nil, fmt.Errorf("no physical device named %q with a graphics queue", name)
	}
	return nil, nil, errors.New("no physical device with a graphics queue")
}

// Close waits for the device to go idle and destroys the command pool, the
// device and the instance. Resources created from the device must be released
// before.
func (c *Context) Close() {
	if c.Device != nil {
		if err := c.Device.WaitIdle(); err != nil {
			log.Printf("wait idle: %v", err)
		}
		if c.CommandPool != 0 {
			c.Device.DestroyCommandPool(c.CommandPool)
			c.CommandPool = 0
		}
		if live := c.Device.Live(); len(live) > 0 {
			log.Printf("destroying device with live objects: %v", live)
		}
		c.Device.Destroy()
		c.Device = nil
	}
	if c.Instance != nil {
		c.Instance.Destroy()
		c.Instance = nil
	}
}
