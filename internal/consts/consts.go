package consts

const (
	SBASE          = 100.0 // Default system base power (MVA)
	NUMERICAL_ZERO = 1e-10 // Denominators below this are treated as zero
	LODF_MAX       = 1.2   // LODF values beyond this are numerical garbage
	NTC_THRESHOLD  = 0.02  // Exchange sensitivity below this is not limiting
	PARALLEL_MIN   = 500   // Branch count from which reductions go parallel
)
