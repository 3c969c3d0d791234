package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows the main API areas
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health                 - Health check")
	fmt.Println("  GET  /stats                  - Server statistics")
	fmt.Println("  POST /api/v1/auth/signup     - Create an account")
	fmt.Println("  POST /api/v1/auth/login      - Sign in")
	fmt.Println("  GET  /api/v1/jobs            - Browse the job board")
	fmt.Println("  GET  /api/v1/dashboard/...   - HR and job seeker dashboards (token required)")
	fmt.Println("  POST /api/v1/ai/...          - AI recruiting tools (token required)")
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	fmt.Printf("Session tokens: HS256, valid for %s\n", s.AppConfig.Auth.TokenTTL)
	if s.Google != nil {
		fmt.Println("Google sign-in: ENABLED")
	} else {
		fmt.Println("Google sign-in: DISABLED")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByUser {
			fmt.Println("  - Per user rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
