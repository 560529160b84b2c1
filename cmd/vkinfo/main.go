// Command vkinfo lists the Vulkan loader's layers and extensions and, for
// every physical device, the properties the quad resources depend on: queue
// families, memory types, heaps and the copy row pitch alignment.
package main

import (
	"fmt"
	"os"

	"github.com/celer/vkquad"
	"github.com/celer/vkquad/vulkan"
)

func orExit(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "vkinfo: %v\n", err)
		os.Exit(1)
	}
}

func list(title string, data []string) {
	fmt.Printf("%s\n", title)
	fmt.Printf("-----------------------------\n")
	for _, d := range data {
		fmt.Printf("\t%s\n", d)
	}
	fmt.Printf("\n")
}

func showMemoryTypes(props vkquad.MemoryProperties) {
	fmt.Printf("\n\tMemory Types\n")
	fmt.Printf("\t\tIndex\tHeapIdx\tFlags\n")
	for i, mt := range props.MemoryTypes {
		fmt.Printf("\t\t%d\t%d\t%s\n", i, mt.HeapIndex, mt.PropertyFlags)
	}

	// what staging buffers and textures would be placed in, given no
	// restriction from the resource itself
	all := uint32(1)<<uint(len(props.MemoryTypes)) - 1
	fmt.Printf("\n\tSelection\n")
	for _, c := range []struct {
		name     string
		required vkquad.MemoryPropertyFlags
	}{
		{"staging / vertex / index", vkquad.HostVisibleCoherent},
		{"texture", vkquad.MemoryPropertyDeviceLocal},
	} {
		index, err := vkquad.FindMemoryType(props, all, c.required)
		if err != nil {
			fmt.Printf("\t\t%s\t%v\n", c.name, err)
			continue
		}
		fmt.Printf("\t\t%s\ttype %d\n", c.name, index)
	}
}

func showPhysicalDeviceInfo(pd *vulkan.PhysicalDevice) {
	fmt.Printf("\n%s\n", pd.DeviceName)
	fmt.Printf("-----------------------------\n")
	fmt.Printf("\n\tQueue Families\n")
	queueFamilies, err := pd.QueueFamilies()
	orExit(err)
	for _, qf := range queueFamilies {
		fmt.Printf("\t\t%s\n", qf.String())
	}

	showMemoryTypes(pd.MemoryProperties())
	fmt.Printf("\n\tHeaps\n\t\t%s\n", pd.HeapSizes())
	fmt.Printf("\n\tLimits\n\t\toptimalBufferCopyRowPitchAlignment %d\n", pd.Limits().OptimalBufferCopyRowPitchAlignment)
}

func main() {
	orExit(vulkan.InitializeHeadless())

	extensions, err := vulkan.SupportedExtensions()
	orExit(err)
	list("Extensions", extensions)

	layers, err := vulkan.SupportedLayers()
	orExit(err)
	list("Layers", layers)

	app := &vulkan.App{Name: "vkinfo"}
	instance, err := app.CreateInstance()
	orExit(err)
	defer instance.Destroy()

	physicalDevices, err := instance.PhysicalDevices()
	orExit(err)
	for _, physicalDevice := range physicalDevices {
		showPhysicalDeviceInfo(physicalDevice)
	}
}
