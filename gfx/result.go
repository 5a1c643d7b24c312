// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "fmt"

// Result codes the bootstrap reacts to. Values mirror VkResult.
const (
	ResultSuccess                   int32 = 0
	ResultErrorOutOfHostMemory      int32 = -1
	ResultErrorOutOfDeviceMemory    int32 = -2
	ResultErrorInitializationFailed int32 = -3
	ResultErrorDeviceLost           int32 = -4
	ResultErrorLayerNotPresent      int32 = -6
	ResultErrorExtensionNotPresent  int32 = -7
	ResultErrorFeatureNotPresent    int32 = -8
	ResultErrorIncompatibleDriver   int32 = -9
	ResultErrorFormatNotSupported   int32 = -11
	ResultErrorSurfaceLost          int32 = -1000000000
	ResultErrorNativeWindowInUse    int32 = -1000000001
	ResultErrorInvalidShader        int32 = -1000012000
)

var resultNames = map[int32]string{
	ResultSuccess:                   "VK_SUCCESS",
	ResultErrorOutOfHostMemory:      "VK_ERROR_OUT_OF_HOST_MEMORY",
	ResultErrorOutOfDeviceMemory:    "VK_ERROR_OUT_OF_DEVICE_MEMORY",
	ResultErrorInitializationFailed: "VK_ERROR_INITIALIZATION_FAILED",
	ResultErrorDeviceLost:           "VK_ERROR_DEVICE_LOST",
	-5:                              "VK_ERROR_MEMORY_MAP_FAILED",
	ResultErrorLayerNotPresent:      "VK_ERROR_LAYER_NOT_PRESENT",
	ResultErrorExtensionNotPresent:  "VK_ERROR_EXTENSION_NOT_PRESENT",
	ResultErrorFeatureNotPresent:    "VK_ERROR_FEATURE_NOT_PRESENT",
	ResultErrorIncompatibleDriver:   "VK_ERROR_INCOMPATIBLE_DRIVER",
	-10:                             "VK_ERROR_TOO_MANY_OBJECTS",
	ResultErrorFormatNotSupported:   "VK_ERROR_FORMAT_NOT_SUPPORTED",
	ResultErrorSurfaceLost:          "VK_ERROR_SURFACE_LOST_KHR",
	ResultErrorNativeWindowInUse:    "VK_ERROR_NATIVE_WINDOW_IN_USE_KHR",
	-1000001004:                     "VK_ERROR_OUT_OF_DATE_KHR",
	ResultErrorInvalidShader:        "VK_ERROR_INVALID_SHADER_NV",
}

// ResultName returns the symbolic name of a result code.
func ResultName(code int32) string {
	if name, ok := resultNames[code]; ok {
		return name
	}
	return fmt.Sprintf("VkResult(%d)", code)
}

// APIError is a failed call into the graphics API.
type APIError struct {
	// Call is the name of the API entry point, e.g. "vkCreateDevice".
	Call string
	// Code is the raw result code the entry point returned.
	Code int32
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Call, ResultName(e.Code))
}
