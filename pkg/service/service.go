/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// Package service knows the officially supported DLT control service ids.
package service

// Info is the name and explanation of a control service
type Info struct {
	Name        string
	Explanation string
}

var services = map[uint8]Info{
	0x01: {"set_log_level", "Set the Log Level"},
	0x02: {"set_trace_status", "Enable/Disable Trace Messages"},
	0x03: {"get_log_info", "Returns the LogLevel for registered applications"},
	0x04: {"get_default_log_level", "Returns the LogLevel for wildcards"},
	0x05: {"store_configuration", "Stores the current configuration non volatile"},
	0x06: {"restore_to_factory_default", "Sets the configuration back to default"},
	0x07: {"set_com_interface_status", "SetComInterfaceStatus -- deprecated"},
	0x08: {"set_com_interface_max_bandwidth", "SetComInterfaceMaxBandwidth -- deprecated"},
	0x09: {"set_verbose_mode", "SetVerboseMode -- deprecated"},
	0x0A: {"set_message_filtering", "Enable/Disable message filtering"},
	0x0B: {"set_timing_packets", "SetTimingPackets -- deprecated"},
	0x0C: {"get_local_time", "GetLocalTime -- deprecated"},
	0x0D: {"set_use_ecuid", "SetUseECUID -- deprecated"},
	0x0E: {"set_use_session_id", "SetUseSessionID -- deprecated"},
	0x0F: {"set_use_timestamp", "SetUseTimestamp -- deprecated"},
	0x10: {"set_use_extended_header", "SetUseExtendedHeader -- deprecated"},
	0x11: {"set_default_log_level", "Sets the LogLevel for wildcards"},
	0x12: {"set_default_trace_status", "Enable/Disable TraceMessages for wildcards"},
	0x13: {"get_software_version", "Get the ECU software version"},
	0x14: {"message_buffer_overflow", "MessageBufferOverflow -- deprecated"},
	0x15: {"get_default_trace_status", "Get the current TraceLevel for wildcards"},
	0x16: {"get_com_interfacel_status", "GetComInterfacelStatus -- deprecated"},
	0x17: {"get_log_channel_names", "Returns the LogChannel's name"},
	0x18: {"get_com_interface_max_bandwidth", "GetComInterfaceMaxBandwidth -- deprecated"},
	0x19: {"get_verbose_mode_status", "GetVerboseModeStatus -- deprecated"},
	0x1A: {"get_message_filtering_status", "GetMessageFilteringStatus -- deprecated"},
	0x1B: {"get_use_ecuid", "GetUseECUID -- deprecated"},
	0x1C: {"get_use_session_id", "GetUseSessionID -- deprecated"},
	0x1D: {"get_use_timestamp", "GetUseTimestamp -- deprecated"},
	0x1E: {"get_use_extended_header", "GetUseExtendedHeader -- deprecated"},
	0x1F: {"get_trace_status", "Returns the current TraceStatus"},
	0x20: {"set_log_channel_assignment", "Adds/Removes the given LogChannel as output path"},
	0x21: {"set_log_channel_threshold", "Sets the filter threshold for the given LogChannel"},
	0x22: {"get_log_channel_threshold", "Returns the current LogLevel for a given LogChannel"},
	0x23: {"buffer_overflow_notification", "Report that a buffer overflow occurred"},
}

// Lookup maps a service id to its name and explanation
func Lookup(serviceID uint8) (Info, bool) {
	info, ok := services[serviceID]
	return info, ok
}
