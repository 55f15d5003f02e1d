package platform

// AppName is reported to notification services that group by application.
const AppName = "Doodle"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image shown with the
	// notification where the platform supports it.
	IconPath string
	// TimeoutMS overrides the display time where supported. Zero uses the
	// platform default.
	TimeoutMS int32
}
