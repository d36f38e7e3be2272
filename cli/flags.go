package cli

var (
	verbose    bool
	configPath string

	// config is the effective configuration after flags are applied
	config = defaultConfig()

	// for server commands
	listenAddr  string
	enableCORS  bool
	runAsDaemon bool
	requireAuth bool

	// for replay and orientation commands
	screenWidth  int
	screenHeight int

	// for orientation command
	rotationMatrix []float64
	rotationVector []float64
)
