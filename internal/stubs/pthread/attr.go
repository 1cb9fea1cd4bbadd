package pthread

import "github.com/palmrunner/palmrunner/internal/armcore"

func init() {
	register("pthread_attr_init", stubOK)
	register("pthread_attr_destroy", stubOK)
	register("pthread_attr_getstacksize", stubAttrGetstacksize)
	register("pthread_attr_setdetachstate", stubOK)
	register("pthread_mutexattr_init", stubOK)
	register("pthread_mutexattr_destroy", stubOK)
	register("pthread_mutexattr_settype", stubOK)
}

func stubAttrGetstacksize(core *armcore.Core) (uint32, error) {
	sizePtr, _ := core.R(1)
	if sizePtr != 0 {
		if err := core.MemWriteU32(sizePtr, 8*1024*1024); err != nil {
			return 0, err
		}
	}
	return 0, nil
}
