// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/xlab/closer"
	"github.com/xlab/tablewriter"

	"github.com/devblok/kiln/core"
	"github.com/devblok/kiln/device"
)

var (
	asJSON     = flag.Bool("json", false, "Print devices as JSON")
	validation = flag.String("validation", "off", "Validation mode: required, optional or off")
	verbose    = flag.Bool("v", false, "Log bootstrap steps")
)

func main() {
	flag.Parse()
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if !*verbose {
		log.SetLevel(logrus.WarnLevel)
	}
	defer closer.Close()

	mode, err := core.ParseValidationMode(*validation)
	if err != nil {
		fatal(log, err, "parsing flags")
	}

	driver, err := device.NewVulkan(nil, log)
	if err != nil {
		fatal(log, err, "loading vulkan")
	}
	instance, err := core.CreateInstance(driver, core.InstanceConfiguration{
		ApplicationName: "kilninfo",
		Validation:      mode,
	}, log)
	if err != nil {
		fatal(log, err, "creating instance")
	}
	closer.Bind(instance.Destroy)

	devices, err := core.EnumerateDevices(instance, nil)
	if err != nil {
		fatal(log, err, "enumerating devices")
	}

	if *asJSON {
		bytes, err := json.MarshalIndent(devices, "", "  ")
		if err != nil {
			fatal(log, err, "encoding devices")
		}
		fmt.Printf("%s\n", bytes)
		return
	}
	fmt.Print(render(devices))
}

func fatal(log logrus.FieldLogger, err error, msg string) {
	log.WithError(err).Error(msg)
	closer.Exit(1)
}

// render formats devices as one table.
func render(devices []core.PhysicalDeviceInfo) string {
	table := tablewriter.CreateTable()
	table.UTF8Box()
	table.AddTitle("PHYSICAL DEVICES")
	for i, d := range devices {
		if i > 0 {
			table.AddSeparator()
		}
		table.AddRow("Name", d.Name)
		table.AddRow("Index", d.Index)
		if d.Invalid {
			table.AddRow("Invalid", d.Reason)
			continue
		}
		table.AddRow("Type", d.Type.String())
		table.AddRow("Vendor", fmt.Sprintf("%#x", d.VendorID))
		table.AddRow("Device", fmt.Sprintf("%#x", d.ID))
		table.AddRow("Driver version", d.DriverVersion)
		table.AddRow("Memory", fmt.Sprintf("%d MiB", d.Memory>>20))
		table.AddRow("Queue families", len(d.QueueFamilies))
		table.AddRow("Max samples", uint32(d.MaxUsableSampleCount()))
		table.AddRow("Line widths", fmt.Sprintf("%g - %g", d.LineWidthRange[0], d.LineWidthRange[1]))
		table.AddRow("Wide lines", d.Features.WideLines)
		table.AddRow("Sample shading", d.Features.SampleRateShading)
		table.AddRow("Extensions", len(d.Extensions))
		for _, ext := range d.Extensions {
			table.AddRow("", ext)
		}
	}
	return table.Render()
}
