package common

// JSON-RPC method names served by the daemon.
const (
	MethodScheduleGet        = "schedule.get"
	MethodScheduleMonth      = "schedule.month"
	MethodPrayerNext         = "prayer.next"
	MethodQiblaGet           = "qibla.get"
	MethodLocationUpdate     = "location.update"
	MethodLocationDetect     = "location.detect"
	MethodSettingsGet        = "settings.get"
	MethodSettingsUpdate     = "settings.update"
	MethodCustomTimesUpdate  = "customTimes.update"
	MethodJumuahUpdate       = "jumuah.update"
	MethodAudioPlay          = "audio.play"
	MethodAudioStop          = "audio.stop"
	MethodAudioPause         = "audio.pause"
	MethodAudioResume        = "audio.resume"
	MethodAudioSetVolume     = "audio.setVolume"
	MethodAudioStatus        = "audio.status"
	MethodSystemGetVersion   = "system.getVersion"
	MethodSystemCheckUpdates = "system.checkUpdates"
	MethodSystemInitialize   = "system.initialize"
)

// PushMethod names a server-to-client notification.
type PushMethod string

const (
	PushPrayersUpdated   PushMethod = "prayers.updated"
	PushPrayerArrived    PushMethod = "prayer.arrived"
	PushPrayerReminder   PushMethod = "prayer.reminder"
	PushNotificationShow PushMethod = "notification.show"
)
