// Package request provides a state-driven orchestrator for single in-flight API requests
// with bounded, parameter-memorizing retries.
//
// # States
//
// Every operation moves through the same machine:
//
//	Idle -> Loading -> Success(payload) | Failure(NetworkError) | ValidationError(NetworkError)
//
// Idle is the initial state and the state Retry passes through before re-entering the
// start path. Terminal states last until the next Start or Retry.
//
// # Start
//
// Start runs the operation's Validator first. A rejected input becomes
// ValidationError(message) without touching the transport or the retry counter. Accepted
// input is memorized, the retry counter is reset, the state becomes Loading and the
// RequestFunc is called exactly once. Its completion becomes Success or Failure; on
// Success the operation's SideEffect runs once.
//
// # Retry
//
// Retry replays the memorized parameters through the start path, validation included.
// Each Retry increments the attempt counter; once it reaches the bound (3 by default)
// Retry publishes ValidationError(MaxRetryMessage) and issues no call. Only a fresh Start
// resets the counter. Transport errors are never retried automatically.
//
// # Observation
//
// Transitions are published through a Publisher: observers get the latest state on
// subscription and every later transition, in order, on one dispatch goroutine per
// publisher. Close releases every observer.
//
// # Example
//
//	login, err := request.New(request.Config[LoginParams, *LoginResult]{
//		Name:      "login",
//		Validate:  validateLogin,
//		Request:   client.Login,
//		OnSuccess: storeSession,
//	}, request.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer login.Close()
//
//	sub := login.Subscribe(func(s request.State[*LoginResult]) {
//		logger.Info("login state", "state", s.Kind())
//	})
//	defer sub.Unsubscribe()
//
//	st, _ := login.Start(ctx, LoginParams{CountryCode: "+966", Phone: "501234567"})
//	if st.Kind() == request.Failure {
//		st, _ = login.Retry(ctx)
//	}
package request
