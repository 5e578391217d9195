package api

import "github.com/nerrad567/openhab-ghome/internal/device"

// mergeState copies every field set in src onto dst.
func mergeState(dst *device.State, src device.State) {
	if src.On != nil {
		dst.On = src.On
	}
	if src.Brightness != nil {
		dst.Brightness = src.Brightness
	}
	if src.Color != nil {
		dst.Color = src.Color
	}
	if src.OpenPercent != nil {
		dst.OpenPercent = src.OpenPercent
	}
	if src.ThermostatMode != nil {
		dst.ThermostatMode = src.ThermostatMode
	}
	if src.ThermostatTemperatureAmbient != nil {
		dst.ThermostatTemperatureAmbient = src.ThermostatTemperatureAmbient
	}
	if src.ThermostatTemperatureSetpoint != nil {
		dst.ThermostatTemperatureSetpoint = src.ThermostatTemperatureSetpoint
	}
	if src.ThermostatHumidityAmbient != nil {
		dst.ThermostatHumidityAmbient = src.ThermostatHumidityAmbient
	}
	if src.Start != nil {
		dst.Start = src.Start
	}
}

// stateFields flattens a state into InfluxDB fields. Unset fields are left
// out and booleans are kept as booleans.
func stateFields(st device.State) map[string]any {
	fields := make(map[string]any)
	if st.On != nil {
		fields["on"] = *st.On
	}
	if st.Brightness != nil {
		fields["brightness"] = int64(*st.Brightness)
	}
	if st.Color != nil {
		fields["spectrum_rgb"] = int64(st.Color.SpectrumRGB)
	}
	if st.OpenPercent != nil {
		fields["open_percent"] = int64(*st.OpenPercent)
	}
	if st.ThermostatMode != nil {
		fields["thermostat_mode"] = *st.ThermostatMode
	}
	if st.ThermostatTemperatureAmbient != nil {
		fields["temperature_ambient"] = *st.ThermostatTemperatureAmbient
	}
	if st.ThermostatTemperatureSetpoint != nil {
		fields["temperature_setpoint"] = *st.ThermostatTemperatureSetpoint
	}
	if st.ThermostatHumidityAmbient != nil {
		fields["humidity_ambient"] = *st.ThermostatHumidityAmbient
	}
	return fields
}
