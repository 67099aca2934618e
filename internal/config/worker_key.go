package config

type WorkerKeyStruct struct {
	EnrollmentQueue string
}

var WorkerKey = &WorkerKeyStruct{
	EnrollmentQueue: "course_enrollment_queue",
}
